package store

import (
	"context"
	"errors"
	"iter"

	"github.com/punchlineapp/punchline-server/internal/docstore"
	"github.com/punchlineapp/punchline-server/internal/domain"
)

// JokeStore persists jokes in the top-level "jokes" collection.
type JokeStore struct {
	docs docstore.Store
}

// Create stores a new joke. The id must be unused.
func (s *JokeStore) Create(ctx context.Context, j *domain.Joke) error {
	err := s.docs.Create(ctx, CollectionJokes, j.ID, j)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return ErrJokeExists
	}
	return translate(err, nil)
}

// Put stores a joke, replacing any joke with the same id.
func (s *JokeStore) Put(ctx context.Context, j *domain.Joke) error {
	return translate(s.docs.Set(ctx, CollectionJokes, j.ID, j), nil)
}

// Get returns the joke or ErrJokeNotFound.
func (s *JokeStore) Get(ctx context.Context, id string) (*domain.Joke, error) {
	if id == "" {
		return nil, ErrJokeNotFound
	}
	var j domain.Joke
	if err := s.docs.Get(ctx, CollectionJokes, id, &j); err != nil {
		return nil, translate(err, ErrJokeNotFound)
	}
	return &j, nil
}

// Exists reports whether a joke with id is stored.
func (s *JokeStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrJokeNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes the joke. Deleting a missing joke succeeds.
func (s *JokeStore) Delete(ctx context.Context, id string) error {
	return translate(s.docs.Delete(ctx, CollectionJokes, id), nil)
}

// List returns every joke, newest first.
func (s *JokeStore) List(ctx context.Context) ([]*domain.Joke, error) {
	q := docstore.Query{}.Order(domain.FieldCreatedAt, true)
	return collectJokes(s.docs.Query(ctx, CollectionJokes, q))
}

// ListByCreator returns the jokes authored by userID, newest first.
func (s *JokeStore) ListByCreator(ctx context.Context, userID string) ([]*domain.Joke, error) {
	q := docstore.Query{}.
		Where(domain.FieldCreatorID, userID).
		Order(domain.FieldCreatedAt, true)
	return collectJokes(s.docs.Query(ctx, CollectionJokes, q))
}

// ListTagged returns jokes carrying both normalized tags. An empty tag is
// not filtered on.
func (s *JokeStore) ListTagged(ctx context.Context, ageRange, scenario string) ([]*domain.Joke, error) {
	q := docstore.Query{}
	if scenario != "" {
		q = q.WhereContains(domain.FieldScenarios, domain.NormalizeTag(scenario))
	}
	if ageRange != "" {
		q = q.WhereContains(domain.FieldAgeRange, domain.NormalizeTag(ageRange))
	}
	return collectJokes(s.docs.Query(ctx, CollectionJokes, q.Order(domain.FieldCreatedAt, true)))
}

// GetMany fetches jokes by id in order, skipping ids that no longer exist.
func (s *JokeStore) GetMany(ctx context.Context, ids []string) ([]*domain.Joke, error) {
	jokes := make([]*domain.Joke, 0, len(ids))
	for _, id := range ids {
		j, err := s.Get(ctx, id)
		if errors.Is(err, ErrJokeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		jokes = append(jokes, j)
	}
	return jokes, nil
}

func collectJokes(seq iter.Seq2[*docstore.Snapshot, error]) ([]*domain.Joke, error) {
	jokes := []*domain.Joke{}
	for snap, err := range seq {
		if err != nil {
			return nil, translate(err, nil)
		}
		var j domain.Joke
		if err := snap.DataTo(&j); err != nil {
			return nil, translate(err, nil)
		}
		jokes = append(jokes, &j)
	}
	return jokes, nil
}
