package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchlineapp/punchline-server/internal/domain"
)

func TestCreatedIndex(t *testing.T) {
	s, now := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Created.Add(ctx, &domain.CreatedJoke{UserID: "user-a", JokeID: "joke-1", CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.Created.Add(ctx, &domain.CreatedJoke{UserID: "user-a", JokeID: "joke-2", CreatedAt: *now}))
	require.NoError(t, s.Created.Add(ctx, &domain.CreatedJoke{UserID: "user-b", JokeID: "joke-3", CreatedAt: *now}))

	has, err := s.Created.Has(ctx, "user-a", "joke-1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.Created.Has(ctx, "user-b", "joke-1")
	require.NoError(t, err)
	assert.False(t, has)

	entries, err := s.Created.List(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "joke-2", entries[0].JokeID)

	require.NoError(t, s.Created.Remove(ctx, "user-a", "joke-2"))
	require.NoError(t, s.Created.Remove(ctx, "user-a", "joke-2"))

	entries, err = s.Created.List(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
