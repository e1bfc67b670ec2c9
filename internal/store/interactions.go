package store

import (
	"context"
	"errors"
	"time"

	"github.com/punchlineapp/punchline-server/internal/docstore"
	"github.com/punchlineapp/punchline-server/internal/domain"
)

// InteractionStore persists one domain.Interaction per (user, joke) under
// users/{uid}/interactions/{jokeID}.
type InteractionStore struct {
	docs docstore.Store
	now  func() time.Time
}

// Get returns the interaction, or the neutral state when none is stored.
func (s *InteractionStore) Get(ctx context.Context, userID, jokeID string) (*domain.Interaction, error) {
	var in domain.Interaction
	err := s.docs.Get(ctx, userCollection(userID, subcollectionActivity), jokeID, &in)
	if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, docstore.ErrInvalidPath) {
		return domain.NewInteraction(userID, jokeID), nil
	}
	if err != nil {
		return nil, translate(err, nil)
	}
	return &in, nil
}

// Mutate applies fn to the current interaction in one atomic document
// update and returns the resulting state. fn reports whether it changed
// anything; unchanged interactions are not rewritten. An interaction left
// empty is deleted. A malformed id holds only the neutral state: changes
// that keep it neutral succeed, anything else is ErrInvalidID.
func (s *InteractionStore) Mutate(ctx context.Context, userID, jokeID string, fn func(*domain.Interaction) bool) (*domain.Interaction, error) {
	var result *domain.Interaction

	err := s.docs.Update(ctx, userCollection(userID, subcollectionActivity), jokeID,
		func(current *docstore.Snapshot) (any, error) {
			in := domain.NewInteraction(userID, jokeID)
			if current != nil {
				if err := current.DataTo(in); err != nil {
					return nil, err
				}
			}
			result = in
			before := *in

			if !fn(in) {
				return nil, docstore.ErrSkipWrite
			}
			if in.Empty() {
				return nil, nil
			}
			in.Stamp(before, s.now().UTC())
			return in, nil
		})
	if errors.Is(err, docstore.ErrInvalidPath) {
		in := domain.NewInteraction(userID, jokeID)
		if fn(in) {
			return nil, ErrInvalidID.WithCause(err)
		}
		return in, nil
	}
	if err != nil {
		return nil, translate(err, nil)
	}
	return result, nil
}

// ListFavorited returns the user's favorited interactions, most recently
// favorited first.
func (s *InteractionStore) ListFavorited(ctx context.Context, userID string) ([]*domain.Interaction, error) {
	q := docstore.Query{}.Where(domain.FieldFavorited, true).Order(domain.FieldFavoritedAt, true)
	return s.list(ctx, userID, q)
}

// ListByReaction returns interactions with reaction r, most recent reaction
// first.
func (s *InteractionStore) ListByReaction(ctx context.Context, userID string, r domain.Reaction) ([]*domain.Interaction, error) {
	q := docstore.Query{}.Where(domain.FieldReaction, r).Order(domain.FieldReactedAt, true)
	return s.list(ctx, userID, q)
}

// DislikedIDs returns the set of joke ids the user disliked.
func (s *InteractionStore) DislikedIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	disliked, err := s.ListByReaction(ctx, userID, domain.ReactionDisliked)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(disliked))
	for _, in := range disliked {
		ids[in.JokeID] = struct{}{}
	}
	return ids, nil
}

func (s *InteractionStore) list(ctx context.Context, userID string, q docstore.Query) ([]*domain.Interaction, error) {
	out, err := docstore.Collect[domain.Interaction](s.docs.Query(ctx, userCollection(userID, subcollectionActivity), q))
	if err != nil {
		return nil, translate(err, nil)
	}
	items := make([]*domain.Interaction, len(out))
	for i := range out {
		items[i] = &out[i]
	}
	return items, nil
}

// JokeIDs extracts the joke ids of interactions, keeping order.
func JokeIDs(items []*domain.Interaction) []string {
	ids := make([]string, len(items))
	for i, in := range items {
		ids[i] = in.JokeID
	}
	return ids
}
