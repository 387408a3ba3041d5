package service

import (
	"context"
	"testing"
	"time"

	"hobbiesapp/internal/auth"
	"hobbiesapp/internal/domain"
	"hobbiesapp/internal/store/memory"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newMemoryStore() *memory.Store {
	st := memory.New()
	st.Now = fixedNow
	return st
}

func seedUser(t *testing.T, st *memory.Store, name, email, dob string, hobbies ...string) domain.Profile {
	t.Helper()
	hash, err := auth.HashPassword("password-" + name)
	require.NoError(t, err)

	nu := domain.NewUser{Email: email, Name: name, PasswordHash: hash, HobbyNames: hobbies}
	if dob != "" {
		d, err := time.Parse(domain.DateLayout, dob)
		require.NoError(t, err)
		nu.DateOfBirth = &d
	}
	p, err := st.CreateUser(context.Background(), nu)
	require.NoError(t, err)
	return p
}
