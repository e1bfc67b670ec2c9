package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchlineapp/punchline-server/internal/domain"
	"github.com/punchlineapp/punchline-server/internal/store"
)

func createJoke(t *testing.T, ts *testServices, creator string) *domain.Joke {
	t.Helper()
	joke, err := ts.jokes.Create(context.Background(), user(creator), chickenJoke())
	require.NoError(t, err)
	return joke
}

func TestInteraction_LikeThenDislike(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	joke := createJoke(t, ts, "alice")

	for _, order := range [][]domain.Reaction{
		{domain.ReactionLiked, domain.ReactionDisliked},
		{domain.ReactionLiked, domain.ReactionLiked, domain.ReactionDisliked},
		{domain.ReactionDisliked, domain.ReactionLiked, domain.ReactionDisliked},
	} {
		for _, r := range order {
			var err error
			if r == domain.ReactionLiked {
				_, err = ts.interactions.Like(ctx, "bob", joke.ID)
			} else {
				_, err = ts.interactions.Dislike(ctx, "bob", joke.ID)
			}
			require.NoError(t, err)
		}

		liked, err := ts.interactions.Liked(ctx, "bob")
		require.NoError(t, err)
		assert.NotContains(t, jokeIDs(liked), joke.ID)

		disliked, err := ts.interactions.Disliked(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, []string{joke.ID}, jokeIDs(disliked))
	}
}

func TestInteraction_TransitionTable(t *testing.T) {
	tests := []struct {
		name  string
		start domain.Reaction
		like  bool
		want  domain.Reaction
	}{
		{"neutral like", domain.ReactionNone, true, domain.ReactionLiked},
		{"disliked like", domain.ReactionDisliked, true, domain.ReactionLiked},
		{"liked like", domain.ReactionLiked, true, domain.ReactionLiked},
		{"neutral dislike", domain.ReactionNone, false, domain.ReactionDisliked},
		{"liked dislike", domain.ReactionLiked, false, domain.ReactionDisliked},
		{"disliked dislike", domain.ReactionDisliked, false, domain.ReactionDisliked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupServices(t)
			ctx := context.Background()
			joke := createJoke(t, ts, "alice")

			switch tt.start {
			case domain.ReactionLiked:
				_, err := ts.interactions.Like(ctx, "bob", joke.ID)
				require.NoError(t, err)
			case domain.ReactionDisliked:
				_, err := ts.interactions.Dislike(ctx, "bob", joke.ID)
				require.NoError(t, err)
			}

			var (
				in  *domain.Interaction
				err error
			)
			if tt.like {
				in, err = ts.interactions.Like(ctx, "bob", joke.ID)
			} else {
				in, err = ts.interactions.Dislike(ctx, "bob", joke.ID)
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, in.Reaction)

			stored, err := ts.interactions.State(ctx, "bob", joke.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Reaction)
		})
	}
}

func TestInteraction_Clear(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	joke := createJoke(t, ts, "alice")

	_, err := ts.interactions.Like(ctx, "bob", joke.ID)
	require.NoError(t, err)
	_, err = ts.interactions.AddFavorite(ctx, "bob", joke.ID)
	require.NoError(t, err)

	in, err := ts.interactions.Clear(ctx, "bob", joke.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReactionNone, in.Reaction)
	assert.True(t, in.Favorited)

	liked, err := ts.interactions.Liked(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, liked)
	disliked, err := ts.interactions.Disliked(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, disliked)

	favorites, err := ts.interactions.Favorites(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{joke.ID}, jokeIDs(favorites))
}

func TestInteraction_AddFavoriteIdempotent(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	joke := createJoke(t, ts, "alice")

	outcome, err := ts.interactions.AddFavorite(ctx, "bob", joke.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Success())

	outcome, err = ts.interactions.AddFavorite(ctx, "bob", joke.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyExists, outcome)
	assert.False(t, outcome.Success())

	favorites, err := ts.interactions.Favorites(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{joke.ID}, jokeIDs(favorites))
}

func TestInteraction_RemoveFavoriteNonMember(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	kept := createJoke(t, ts, "alice")
	other := createJoke(t, ts, "alice")

	_, err := ts.interactions.AddFavorite(ctx, "bob", kept.ID)
	require.NoError(t, err)

	for _, jokeID := range []string{other.ID, "joke-never-existed"} {
		outcome, err := ts.interactions.RemoveFavorite(ctx, "bob", jokeID)
		require.NoError(t, err)
		assert.True(t, outcome.Success())
	}

	favorites, err := ts.interactions.Favorites(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, jokeIDs(favorites))

	outcome, err := ts.interactions.RemoveFavorite(ctx, "bob", kept.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeOK, outcome)

	favorites, err = ts.interactions.Favorites(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestInteraction_MissingJoke(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()

	_, err := ts.interactions.Like(ctx, "bob", "joke-missing")
	assert.ErrorIs(t, err, store.ErrJokeNotFound)
	_, err = ts.interactions.Dislike(ctx, "bob", "joke-missing")
	assert.ErrorIs(t, err, store.ErrJokeNotFound)
	_, err = ts.interactions.AddFavorite(ctx, "bob", "joke-missing")
	assert.ErrorIs(t, err, store.ErrJokeNotFound)
}

// Lists skip interactions whose joke was deleted after the fact.
func TestInteraction_DanglingEntriesSkipped(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	gone := createJoke(t, ts, "alice")
	kept := createJoke(t, ts, "alice")

	for _, j := range []*domain.Joke{gone, kept} {
		_, err := ts.interactions.Like(ctx, "bob", j.ID)
		require.NoError(t, err)
		_, err = ts.interactions.AddFavorite(ctx, "bob", j.ID)
		require.NoError(t, err)
	}

	outcome, err := ts.jokes.Delete(ctx, user("alice"), gone.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeOK, outcome)

	liked, err := ts.interactions.Liked(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, jokeIDs(liked))

	favorites, err := ts.interactions.Favorites(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, jokeIDs(favorites))
}

func TestInteraction_CreatedJokes(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	first := createJoke(t, ts, "alice")
	second := createJoke(t, ts, "alice")
	createJoke(t, ts, "bob")

	created, err := ts.interactions.CreatedJokes(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, jokeIDs(created))

	outcome, err := ts.interactions.DeleteCreated(ctx, user("bob"), first.ID)
	require.NoError(t, err)
	assert.False(t, outcome.Success())

	outcome, err = ts.interactions.DeleteCreated(ctx, user("alice"), first.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Success())

	created, err = ts.interactions.CreatedJokes(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, jokeIDs(created))
}

// Concurrent likes and dislikes from the same user never leave a joke in
// both lists.
func TestInteraction_ConcurrentReactionsExclusive(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	joke := createJoke(t, ts, "alice")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			var err error
			if i%2 == 0 {
				_, err = ts.interactions.Like(ctx, "bob", joke.ID)
			} else {
				_, err = ts.interactions.Dislike(ctx, "bob", joke.ID)
			}
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	liked, err := ts.interactions.Liked(ctx, "bob")
	require.NoError(t, err)
	disliked, err := ts.interactions.Disliked(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, append(liked, disliked...), 1)
}
