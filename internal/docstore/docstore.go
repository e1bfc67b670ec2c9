// Package docstore defines the document store the repositories are built on.
//
// A store holds JSON-shaped documents in named collections. Collections are
// slash-separated paths such as "jokes" or "users/u1/interactions"; document
// ids never contain a slash. The only atomicity guarantee is per document:
// Update runs a read-modify-write on one document, nothing spans documents.
//
// Three backends implement Store: badgerstore (embedded, the default),
// sqlitestore (single file), and firestorestore (Google Cloud Firestore).
// storetest holds the conformance suite they all pass.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("docstore: document already exists")
	// ErrSkipWrite may be returned by an UpdateFunc to leave the document as is.
	ErrSkipWrite = errors.New("docstore: skip write")
	// ErrInvalidPath is returned for malformed collection paths or ids.
	ErrInvalidPath = errors.New("docstore: invalid path")
)

// UpdateFunc computes a document's replacement from its current snapshot,
// which is nil when the document does not exist. Returning a nil document
// deletes it; returning ErrSkipWrite leaves it untouched; any other error
// aborts the update and is returned from Update unchanged.
//
// Backends with optimistic concurrency may call fn more than once, so it
// must not have side effects beyond its return values.
type UpdateFunc func(current *Snapshot) (any, error)

// Store is a collection-oriented document store.
type Store interface {
	// Get decodes the document into dst.
	Get(ctx context.Context, collection, id string, dst any) error
	// Create writes doc, failing with ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, collection, id string, doc any) error
	// Set writes doc, replacing any existing document.
	Set(ctx context.Context, collection, id string, doc any) error
	// Delete removes the document. Deleting a missing document succeeds.
	Delete(ctx context.Context, collection, id string) error
	// Update atomically replaces a single document.
	Update(ctx context.Context, collection, id string, fn UpdateFunc) error
	// Query streams documents in the collection matching q.
	Query(ctx context.Context, collection string, q Query) iter.Seq2[*Snapshot, error]
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend's resources.
	Close() error
}

// Snapshot is a read-only view of a stored document.
type Snapshot struct {
	id     string
	fields func() (map[string]any, error)
	decode func(dst any) error
}

// NewSnapshot builds a snapshot from backend-specific accessors.
func NewSnapshot(id string, fields func() (map[string]any, error), decode func(dst any) error) *Snapshot {
	return &Snapshot{id: id, fields: fields, decode: decode}
}

// ID returns the document id.
func (s *Snapshot) ID() string { return s.id }

// DataTo decodes the document into dst.
func (s *Snapshot) DataTo(dst any) error { return s.decode(dst) }

// Fields returns the document as a generic map, used for filtering.
func (s *Snapshot) Fields() (map[string]any, error) { return s.fields() }

// Collect drains a query into a slice of decoded documents.
func Collect[T any](seq iter.Seq2[*Snapshot, error]) ([]T, error) {
	var out []T
	for snap, err := range seq {
		if err != nil {
			return nil, err
		}
		var v T
		if err := snap.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.ID(), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Join builds a collection path from segments, e.g. Join("users", uid, "created").
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// ValidatePath checks a collection path and document id. Collection paths
// have an odd number of non-empty segments; ids are non-empty and slash-free.
func ValidatePath(collection, id string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	if id == "" || strings.Contains(id, "/") {
		return fmt.Errorf("%w: document id %q", ErrInvalidPath, id)
	}
	return nil
}

// ValidateCollection checks a collection path.
func ValidateCollection(collection string) error {
	segments := strings.Split(collection, "/")
	if len(segments)%2 == 0 {
		return fmt.Errorf("%w: collection %q", ErrInvalidPath, collection)
	}
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("%w: collection %q", ErrInvalidPath, collection)
		}
	}
	return nil
}
