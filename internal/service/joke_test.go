package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchlineapp/punchline-server/internal/domain"
	domainerrors "github.com/punchlineapp/punchline-server/internal/errors"
	"github.com/punchlineapp/punchline-server/internal/store"
)

func TestJokeService_Create(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	joke, err := ts.jokes.Create(ctx, user("alice"), CreateJokeInput{
		Setup:     "  Why did the chicken cross the road?  ",
		Punchline: "To get to the other side!",
		Scenarios: []string{"Bed Time", "bed-time", ""},
		AgeRange:  []string{"5-7"},
	})
	require.NoError(t, err)

	assert.Contains(t, joke.ID, "joke-")
	assert.Equal(t, "Why did the chicken cross the road?", joke.Setup)
	assert.Equal(t, []string{"bed-time"}, joke.Scenarios)
	assert.Equal(t, "alice", joke.CreatorID)
	assert.Equal(t, "alice@example.com", joke.CreatorEmail)
	assert.True(t, joke.CreatedByCustomer)
	assert.False(t, joke.CreatedAt.IsZero())

	has, err := ts.store.Created.Has(ctx, "alice", joke.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestJokeService_CreateValidation(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	_, err := ts.jokes.Create(ctx, user("alice"), CreateJokeInput{Setup: "   ", Punchline: "punch"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 422, de.HTTPStatus())
	assert.Equal(t, map[string]string{"joke_setup": "is required"}, de.Details)

	_, err = ts.jokes.Create(ctx, nil, chickenJoke())
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	all, err := ts.jokes.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestJokeService_ListEmpty(t *testing.T) {
	ts := setupServices(t)

	jokes, err := ts.jokes.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, jokes)
	assert.Empty(t, jokes)
}

func TestJokeService_ListByCreator(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	a1, err := ts.jokes.Create(ctx, user("alice"), chickenJoke())
	require.NoError(t, err)
	_, err = ts.jokes.Create(ctx, user("bob"), chickenJoke())
	require.NoError(t, err)
	a2, err := ts.jokes.Create(ctx, user("alice"), chickenJoke())
	require.NoError(t, err)

	jokes, err := ts.jokes.ListByCreator(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{a2.ID, a1.ID}, jokeIDs(jokes))
}

func TestJokeService_Audio(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	withAudio := chickenJoke()
	withAudio.DefaultAudioID = "https://cdn.example/chicken.mp3"
	j1, err := ts.jokes.Create(ctx, user("alice"), withAudio)
	require.NoError(t, err)
	j2, err := ts.jokes.Create(ctx, user("alice"), chickenJoke())
	require.NoError(t, err)

	ref, err := ts.jokes.AudioReference(ctx, j1.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/chicken.mp3", ref)

	url, err := ts.jokes.AudioURL(ctx, j1.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/chicken.mp3", url)

	ref, err = ts.jokes.AudioReference(ctx, j2.ID)
	require.NoError(t, err)
	assert.Empty(t, ref)

	_, err = ts.jokes.AudioURL(ctx, j2.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = ts.jokes.AudioReference(ctx, "joke-missing")
	assert.ErrorIs(t, err, store.ErrJokeNotFound)
}

type failingResolver struct{}

func (failingResolver) URL(context.Context, string) (string, error) {
	return "", errors.New("signing key unavailable")
}

func TestJokeService_AudioResolverFailure(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	ts.jokes.audio = failingResolver{}

	in := chickenJoke()
	in.DefaultAudioID = "audio/chicken.mp3"
	joke, err := ts.jokes.Create(ctx, user("alice"), in)
	require.NoError(t, err)

	_, err = ts.jokes.AudioURL(ctx, joke.ID)
	assert.ErrorIs(t, err, domainerrors.ErrUpstream)
}

// A non-creator delete leaves the joke and reports not-owner; the creator's
// delete removes it and a later get is NotFound.
func TestJokeService_DeleteOwnership(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	joke, err := ts.jokes.Create(ctx, user("alice"), chickenJoke())
	require.NoError(t, err)

	outcome, err := ts.jokes.Delete(ctx, user("mallory"), joke.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNotOwner, outcome)
	assert.False(t, outcome.Success())

	_, err = ts.jokes.Get(ctx, joke.ID)
	require.NoError(t, err)

	outcome, err = ts.jokes.Delete(ctx, user("alice"), joke.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeOK, outcome)
	assert.True(t, outcome.Success())

	_, err = ts.jokes.Get(ctx, joke.ID)
	assert.ErrorIs(t, err, store.ErrJokeNotFound)
	assert.True(t, IsNotFound(err))

	has, err := ts.store.Created.Has(ctx, "alice", joke.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestJokeService_DeleteMissing(t *testing.T) {
	ts := setupServices(t)

	_, err := ts.jokes.Delete(context.Background(), user("alice"), "joke-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJokeService_CanceledContext(t *testing.T) {
	ts := setupServices(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ts.jokes.Create(ctx, user("alice"), chickenJoke())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = ts.jokes.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
