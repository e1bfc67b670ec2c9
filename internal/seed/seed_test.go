package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchlineapp/punchline-server/internal/docstore/badgerstore"
	domainerrors "github.com/punchlineapp/punchline-server/internal/errors"
	"github.com/punchlineapp/punchline-server/internal/store"
)

const sample = `
creator_id: house
creator_email: jokes@punchline.app
jokes:
  - setup: Why did the chicken cross the road?
    punchline: To get to the other side!
    scenarios: [Bedtime]
    age_range: ["5-7"]
  - setup: What do you call a sleeping dinosaur?
    punchline: A dino-snore!
    audio: audio/dino.mp3
    scenarios: [bedtime, car ride]
    age_range: ["3-5", "5-7"]
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, "house", f.CreatorID)
	require.Len(t, f.Jokes, 2)
	assert.Equal(t, "audio/dino.mp3", f.Jokes[1].Audio)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader("jokes:\n  - setup: only a setup\n"))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = Parse(strings.NewReader("jokes:\n  - setup: a\n    punchline: b\n    colour: red\n"))
	assert.Error(t, err)

	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Jokes)
}

func TestApply_Idempotent(t *testing.T) {
	docs, err := badgerstore.Open(t.TempDir(), nil)
	require.NoError(t, err)
	st := store.New(docs, nil)
	t.Cleanup(func() { _ = st.Close() })

	f, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	res, err := Apply(ctx, st, f, now, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2}, res)

	res, err = Apply(ctx, st, f, now.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Unchanged: 2}, res)

	jokes, err := st.Jokes.List(ctx)
	require.NoError(t, err)
	require.Len(t, jokes, 2)
	assert.Equal(t, JokeID(f.Jokes[0]), jokes[0].ID)
	assert.Equal(t, []string{"bedtime", "car-ride"}, jokes[1].Scenarios)
	assert.Equal(t, "house", jokes[1].CreatorID)
	assert.False(t, jokes[1].CreatedByCustomer)
}

func TestJokeID_Stable(t *testing.T) {
	a := JokeID(Entry{Setup: "  Knock knock", Punchline: "Who's there?"})
	b := JokeID(Entry{Setup: "Knock knock", Punchline: "Who's there? "})
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "joke-"))
}
