package service

import (
	"context"
	"testing"

	"hobbiesapp/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHobbyServiceAdd(t *testing.T) {
	ctx := context.Background()
	svc := &HobbyService{Store: newMemoryStore()}

	_, err := svc.Add(ctx, "  ")
	assert.Equal(t, domain.CodeMissingField, domain.ErrorCode(err))

	_, err = svc.Add(ctx, "x")
	assert.Equal(t, domain.CodeInvalidHobby, domain.ErrorCode(err))

	first, err := svc.Add(ctx, "Rock Climbing")
	require.NoError(t, err)
	again, err := svc.Add(ctx, "rock climbing")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Rock Climbing", again.Name)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
