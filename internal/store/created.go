package store

import (
	"context"
	"errors"

	"github.com/punchlineapp/punchline-server/internal/docstore"
	"github.com/punchlineapp/punchline-server/internal/domain"
)

// CreatedIndex lists each user's jokes under users/{uid}/created/{jokeID}.
type CreatedIndex struct {
	docs docstore.Store
}

// Add records that entry.UserID created entry.JokeID.
func (c *CreatedIndex) Add(ctx context.Context, entry *domain.CreatedJoke) error {
	return translate(c.docs.Set(ctx, userCollection(entry.UserID, subcollectionCreated), entry.JokeID, entry), nil)
}

// Remove drops the entry. Removing a missing entry succeeds.
func (c *CreatedIndex) Remove(ctx context.Context, userID, jokeID string) error {
	err := c.docs.Delete(ctx, userCollection(userID, subcollectionCreated), jokeID)
	if errors.Is(err, docstore.ErrInvalidPath) {
		return nil
	}
	return translate(err, nil)
}

// Has reports whether userID has an entry for jokeID.
func (c *CreatedIndex) Has(ctx context.Context, userID, jokeID string) (bool, error) {
	var entry domain.CreatedJoke
	err := c.docs.Get(ctx, userCollection(userID, subcollectionCreated), jokeID, &entry)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, docstore.ErrNotFound), errors.Is(err, docstore.ErrInvalidPath):
		return false, nil
	default:
		return false, translate(err, nil)
	}
}

// List returns the user's entries, newest first.
func (c *CreatedIndex) List(ctx context.Context, userID string) ([]*domain.CreatedJoke, error) {
	q := docstore.Query{}.Order(domain.FieldCreatedAt, true)
	out, err := docstore.Collect[domain.CreatedJoke](c.docs.Query(ctx, userCollection(userID, subcollectionCreated), q))
	if err != nil {
		return nil, translate(err, nil)
	}
	entries := make([]*domain.CreatedJoke, len(out))
	for i := range out {
		entries[i] = &out[i]
	}
	return entries, nil
}
