package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hobbiesapp/internal/auth"
	"hobbiesapp/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readOnlyProfileStore struct {
	t       *testing.T
	profile domain.Profile
}

func (s *readOnlyProfileStore) GetProfile(_ context.Context, userID string) (domain.Profile, error) {
	if userID != s.profile.ID {
		return domain.Profile{}, domain.ErrNotFound
	}
	return s.profile, nil
}

func (s *readOnlyProfileStore) ApplyProfileChanges(context.Context, string, domain.ProfileChanges, time.Time) (domain.Profile, error) {
	s.t.Fatalf("ApplyProfileChanges called for an unchanged profile")
	return domain.Profile{}, errors.New("unexpected call")
}

func strPtr(s string) *string { return &s }

func TestProfileServiceUpdateProfileNoChanges(t *testing.T) {
	dob := time.Date(1990, 5, 4, 0, 0, 0, 0, time.UTC)
	current := domain.Profile{
		User:    domain.User{ID: "user-1", Name: "Ada", Email: "ada@example.com", DateOfBirth: &dob},
		Hobbies: []domain.Hobby{{ID: "h1", Name: "Chess"}, {ID: "h2", Name: "Hiking"}},
	}
	svc := &ProfileService{Store: &readOnlyProfileStore{t: t, profile: current}, Now: fixedNow}

	hobbies := []string{"hiking", "CHESS"}
	changed, p, err := svc.UpdateProfile(context.Background(), "user-1", ProfileUpdate{
		Name:        strPtr(" Ada "),
		Email:       strPtr("ADA@example.com"),
		DateOfBirth: strPtr("1990-05-04"),
		Hobbies:     &hobbies,
	})
	require.NoError(t, err)
	assert.NotNil(t, changed)
	assert.Empty(t, changed)
	assert.Equal(t, current, p)
}

func TestProfileServiceUpdateProfileChanges(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	ada := seedUser(t, st, "Ada", "ada@example.com", "1990-05-04", "Chess", "Hiking")
	seedUser(t, st, "Bob", "bob@example.com", "", "Chess")
	svc := &ProfileService{Store: st, Credentials: st, Now: fixedNow}

	hobbies := []string{"chess", "Painting"}
	changed, p, err := svc.UpdateProfile(ctx, ada.ID, ProfileUpdate{
		Name:        strPtr("Ada Lovelace"),
		DateOfBirth: strPtr(""),
		Hobbies:     &hobbies,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"date_of_birth", "hobbies", "name"}, changed)
	assert.Equal(t, "Ada Lovelace", p.Name)
	assert.Nil(t, p.DateOfBirth)
	assert.ElementsMatch(t, []string{"Chess", "Painting"}, p.HobbyNames())

	_, _, err = svc.UpdateProfile(ctx, ada.ID, ProfileUpdate{Email: strPtr("bob@example.com")})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	empty := []string{" "}
	_, _, err = svc.UpdateProfile(ctx, ada.ID, ProfileUpdate{Hobbies: &empty})
	assert.Equal(t, domain.CodeNoHobbies, domain.ErrorCode(err))

	_, _, err = svc.UpdateProfile(ctx, ada.ID, ProfileUpdate{DateOfBirth: strPtr("2099-01-01")})
	assert.Equal(t, domain.CodeInvalidDate, domain.ErrorCode(err))
}

func TestProfileServiceUpdatePassword(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	ada := seedUser(t, st, "Ada", "ada@example.com", "", "Chess")

	current, err := st.CreateSession(ctx, ada.ID, testNow.Add(time.Hour), "", "")
	require.NoError(t, err)
	other, err := st.CreateSession(ctx, ada.ID, testNow.Add(time.Hour), "", "")
	require.NoError(t, err)

	issuer := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	issuer.Now = fixedNow
	svc := &ProfileService{Store: st, Credentials: st, Tokens: issuer, Now: fixedNow}

	_, err = svc.UpdatePassword(ctx, ada.ID, current, PasswordChange{Old: "password-Ada"}, false)
	assert.Equal(t, domain.CodeMissingField, domain.ErrorCode(err))

	_, err = svc.UpdatePassword(ctx, ada.ID, current, PasswordChange{Old: "wrong", New: "n3w", Confirm: "n3w"}, false)
	assert.ErrorIs(t, err, domain.ErrIncorrectPassword)

	_, err = svc.UpdatePassword(ctx, ada.ID, current, PasswordChange{Old: "password-Ada", New: "n3w", Confirm: "other"}, false)
	assert.Equal(t, domain.CodePasswordMismatch, domain.ErrorCode(err))

	token, err := svc.UpdatePassword(ctx, ada.ID, current, PasswordChange{Old: "password-Ada", New: "n3w", Confirm: "n3w"}, true)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = st.GetSession(ctx, current)
	assert.NoError(t, err)
	_, err = st.GetSession(ctx, other)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	u, err := st.GetUserWithPassword(ctx, ada.ID)
	require.NoError(t, err)
	ok, err := auth.VerifyPassword(u.PasswordHash, "n3w")
	require.NoError(t, err)
	assert.True(t, ok)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.True(t, issuer.MatchesCredential(claims, u.PasswordHash))
}
