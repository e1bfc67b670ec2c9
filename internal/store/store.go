// Package store holds the repositories the services use: jokes, per-user
// interactions, and the created-jokes index. Each is a thin typed layer over
// a docstore.Store, so the same code runs on Badger, SQLite, or Firestore.
package store

import (
	"log/slog"
	"time"

	"github.com/punchlineapp/punchline-server/internal/docstore"
)

// Collection names.
const (
	CollectionJokes       = "jokes"
	collectionUsers       = "users"
	subcollectionActivity = "interactions"
	subcollectionCreated  = "created"
)

// Store groups the repositories sharing one document store.
type Store struct {
	docs   docstore.Store
	logger *slog.Logger

	Jokes        *JokeStore
	Interactions *InteractionStore
	Created      *CreatedIndex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp documents.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.Interactions.now = now
	}
}

// New wires the repositories over docs.
func New(docs docstore.Store, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		docs:         docs,
		logger:       logger,
		Jokes:        &JokeStore{docs: docs},
		Interactions: &InteractionStore{docs: docs, now: time.Now},
		Created:      &CreatedIndex{docs: docs},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Docs exposes the underlying document store for health checks.
func (s *Store) Docs() docstore.Store {
	return s.docs
}

// Close closes the underlying document store.
func (s *Store) Close() error {
	s.logger.Info("closing document store")
	return s.docs.Close()
}

func userCollection(userID, sub string) string {
	return docstore.Join(collectionUsers, userID, sub)
}
