// Package badgerstore implements docstore.Store on an embedded Badger database.
//
// Documents are JSON values under the key "<collection>/<id>".
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/punchlineapp/punchline-server/internal/docstore"
)

// maxConflictRetries bounds how often Update re-runs after a write conflict.
const maxConflictRetries = 10

// Store is a Badger-backed document store.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ docstore.Store = (*Store)(nil)

// Open opens (or creates) a Badger database in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	return open(opts, logger)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("badger store opened", "path", opts.Dir, "in_memory", opts.InMemory)
	return &Store{db: db, logger: logger}, nil
}

func key(collection, id string) []byte {
	return []byte(collection + "/" + id)
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return docstore.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return docstore.JSONSnapshot(id, val).DataTo(dst)
		})
	})
}

// Create implements docstore.Store.
func (s *Store) Create(ctx context.Context, collection, id string, doc any) error {
	return s.Update(ctx, collection, id, func(current *docstore.Snapshot) (any, error) {
		if current != nil {
			return nil, docstore.ErrAlreadyExists
		}
		return doc, nil
	})
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := docstore.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(collection, id), data)
	})
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(collection, id))
	})
}

// Update implements docstore.Store. Badger transactions are optimistic, so
// fn is re-run when a concurrent writer touched the same key.
func (s *Store) Update(ctx context.Context, collection, id string, fn docstore.UpdateFunc) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	k := key(collection, id)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			var current *docstore.Snapshot
			item, err := txn.Get(k)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				raw, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				current = docstore.JSONSnapshot(id, raw)
			}

			next, err := fn(current)
			if errors.Is(err, docstore.ErrSkipWrite) {
				return nil
			}
			if err != nil {
				return err
			}
			if next == nil {
				if current == nil {
					return nil
				}
				return txn.Delete(k)
			}
			data, err := docstore.Encode(next)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", collection, id, err)
			}
			return txn.Set(k, data)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			s.logger.Debug("badger update conflict, retrying", "collection", collection, "id", id, "attempt", attempt+1)
			continue
		}
		return err
	}
}

// Query implements docstore.Store. Badger has no secondary indexes, so the
// whole collection is scanned and filtered in memory.
func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) iter.Seq2[*docstore.Snapshot, error] {
	return func(yield func(*docstore.Snapshot, error) bool) {
		if err := docstore.ValidateCollection(collection); err != nil {
			yield(nil, err)
			return
		}

		var snaps []*docstore.Snapshot
		prefix := []byte(collection + "/")
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := it.Item()
				id := strings.TrimPrefix(string(item.Key()), string(prefix))
				if strings.Contains(id, "/") {
					// Belongs to a subcollection.
					continue
				}
				raw, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				snaps = append(snaps, docstore.JSONSnapshot(id, raw))
			}
			return nil
		})
		if err != nil {
			yield(nil, err)
			return
		}

		results, err := q.Apply(snaps)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, snap := range results {
			if !yield(snap, nil) {
				return
			}
		}
	}
}

// Ping implements docstore.Store.
func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	s.logger.Info("closing badger store")
	return s.db.Close()
}
