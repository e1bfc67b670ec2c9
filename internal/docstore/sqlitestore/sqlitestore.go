// Package sqlitestore implements docstore.Store on a single SQLite file.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/punchlineapp/punchline-server/internal/docstore"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed document store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	// writeMu serializes read-modify-write transactions so two updates never
	// race to upgrade their read locks.
	writeMu sync.Mutex
}

var _ docstore.Store = (*Store)(nil)

// Open creates or opens the database at path and applies the schema.
// Use ":memory:" only with a single connection; tests use a temp file.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("sqlite store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return docstore.JSONSnapshot(id, raw).DataTo(dst)
}

// Create implements docstore.Store.
func (s *Store) Create(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	data, err := docstore.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		collection, id, string(data))
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return docstore.ErrAlreadyExists
	}
	return nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	data, err := docstore.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	_, err = s.db.ExecContext(ctx, upsertSQL, collection, id, string(data))
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

const upsertSQL = `
INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET
    data = excluded.data,
    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, collection, id string, fn docstore.UpdateFunc) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var current *docstore.Snapshot
	var raw []byte
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("read %s/%s: %w", collection, id, err)
	default:
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
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
			return fmt.Errorf("delete %s/%s: %w", collection, id, err)
		}
	} else {
		data, err := docstore.Encode(next)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", collection, id, err)
		}
		if _, err := tx.ExecContext(ctx, upsertSQL, collection, id, string(data)); err != nil {
			return fmt.Errorf("write %s/%s: %w", collection, id, err)
		}
	}
	return tx.Commit()
}

// Query implements docstore.Store. String equality filters are pushed into
// SQL through json_extract; everything else is evaluated in memory.
func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) iter.Seq2[*docstore.Snapshot, error] {
	return func(yield func(*docstore.Snapshot, error) bool) {
		if err := docstore.ValidateCollection(collection); err != nil {
			yield(nil, err)
			return
		}

		var sb strings.Builder
		sb.WriteString(`SELECT id, data FROM documents WHERE collection = ?`)
		args := []any{collection}
		for _, f := range q.Filters {
			v, ok := f.Value.(string)
			if f.Op != docstore.OpEqual || !ok {
				continue
			}
			sb.WriteString(` AND json_extract(data, ?) = ?`)
			args = append(args, "$."+f.Field, v)
		}
		sb.WriteString(` ORDER BY id`)

		snaps, err := s.scan(ctx, sb.String(), args...)
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

func (s *Store) scan(ctx context.Context, query string, args ...any) ([]*docstore.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var snaps []*docstore.Snapshot
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		snaps = append(snaps, docstore.JSONSnapshot(id, raw))
	}
	return snaps, rows.Err()
}

// Ping implements docstore.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	s.logger.Info("closing sqlite store")
	return s.db.Close()
}
