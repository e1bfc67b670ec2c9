package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchlineapp/punchline-server/internal/docstore"
	"github.com/punchlineapp/punchline-server/internal/docstore/badgerstore"
	"github.com/punchlineapp/punchline-server/internal/domain"
)

// setupTestStore opens a temp-dir Badger store with a controllable clock.
func setupTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()

	docs, err := badgerstore.Open(t.TempDir(), nil)
	require.NoError(t, err)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := New(docs, nil, WithClock(func() time.Time { return now }))
	t.Cleanup(func() { _ = s.Close() })
	return s, &now
}

func makeJoke(id, creator string, created time.Time) *domain.Joke {
	return &domain.Joke{
		ID:           id,
		Setup:        "Why did the chicken cross the road?",
		Punchline:    "To get to the other side!",
		Scenarios:    []string{"bedtime"},
		AgeRange:     []string{"5-7"},
		CreatorID:    creator,
		CreatorEmail: creator + "@example.com",
		CreatedAt:    created,
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, ErrJokeNotFound))
	assert.ErrorIs(t, translate(context.Canceled, nil), context.Canceled)

	err := translate(assert.AnError, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestTranslate_InvalidPath(t *testing.T) {
	invalid := docstore.ValidatePath("jokes", "a/b")
	require.Error(t, invalid)

	assert.Same(t, ErrJokeNotFound, translate(invalid, ErrJokeNotFound))

	err := translate(invalid, nil)
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestErrorIsByCode(t *testing.T) {
	assert.ErrorIs(t, ErrJokeNotFound, ErrNotFound)
	assert.NotErrorIs(t, ErrJokeNotFound, ErrAlreadyExists)
	assert.Equal(t, 404, ErrJokeNotFound.HTTPCode())
}
