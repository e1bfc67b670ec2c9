package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/punchlineapp/punchline-server/internal/docstore/badgerstore"
	"github.com/punchlineapp/punchline-server/internal/domain"
	"github.com/punchlineapp/punchline-server/internal/store"
)

type testServices struct {
	store        *store.Store
	jokes        *JokeService
	interactions *InteractionService
	selector     *SelectorService
	now          *time.Time
}

// setupServices wires every service over a temp-dir Badger store. The clock
// advances one second per read so orderings are deterministic.
func setupServices(t *testing.T) *testServices {
	t.Helper()

	docs, err := badgerstore.Open(t.TempDir(), nil)
	require.NoError(t, err)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	st := store.New(docs, nil, store.WithClock(clock))
	t.Cleanup(func() { _ = st.Close() })

	jokes := NewJokeService(st, nil, nil)
	jokes.SetClock(clock)

	return &testServices{
		store:        st,
		jokes:        jokes,
		interactions: NewInteractionService(st, jokes, nil),
		selector:     NewSelectorService(st, nil),
		now:          &now,
	}
}

func user(uid string) *domain.UserIdentity {
	return &domain.UserIdentity{UserID: uid, Email: uid + "@example.com"}
}

func chickenJoke() CreateJokeInput {
	return CreateJokeInput{
		Setup:     "Why did the chicken cross the road?",
		Punchline: "To get to the other side!",
		Scenarios: []string{"Bedtime"},
		AgeRange:  []string{"5-7"},
	}
}

func jokeIDs(jokes []*domain.Joke) []string {
	ids := make([]string, len(jokes))
	for i, j := range jokes {
		ids[i] = j.ID
	}
	return ids
}
