// Package firestorestore implements docstore.Store on Google Cloud Firestore.
//
// Every call runs with a per-attempt timeout and is retried with exponential
// backoff when Firestore answers with a transient gRPC code. Set
// FIRESTORE_EMULATOR_HOST to run against the local emulator.
package firestorestore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/punchlineapp/punchline-server/internal/docstore"
)

const (
	defaultAttempts = 3
	defaultTimeout  = 10 * time.Second
	backoffWait     = 200 * time.Millisecond
)

// retryCodes are the gRPC codes worth another attempt.
var retryCodes = []codes.Code{
	codes.Canceled,
	codes.DeadlineExceeded,
	codes.ResourceExhausted,
	codes.Aborted,
	codes.Internal,
	codes.Unavailable,
}

// Config configures the Firestore client.
type Config struct {
	Project  string
	Database string // "(default)" when empty
	// CredentialsFile is a service account JSON; empty uses Application
	// Default Credentials.
	CredentialsFile string
	Attempts        int
	Timeout         time.Duration
}

// Store is a Firestore-backed document store.
type Store struct {
	client   *firestore.Client
	logger   *slog.Logger
	attempts int
	timeout  time.Duration
}

var _ docstore.Store = (*Store)(nil)

// Open connects to Firestore.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Project == "" {
		return nil, errors.New("firestore: project is required")
	}
	if cfg.Database == "" {
		cfg.Database = firestore.DefaultDatabaseID
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.Project, cfg.Database, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: new client: %w", err)
	}
	return New(client, cfg, logger), nil
}

// New wraps an existing client.
func New(client *firestore.Client, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{client: client, logger: logger, attempts: cfg.Attempts, timeout: cfg.Timeout}
	if s.attempts <= 0 {
		s.attempts = defaultAttempts
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	logger.Info("firestore store opened", "project", cfg.Project, "database", cfg.Database)
	return s
}

func (s *Store) doc(collection, id string) *firestore.DocumentRef {
	return s.client.Collection(collection).Doc(id)
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string, dst any) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	var snap *firestore.DocumentSnapshot
	err := s.withRetries(ctx, "get", func(ctx context.Context) error {
		got, err := s.doc(collection, id).Get(ctx)
		snap = got
		return err
	})
	if status.Code(err) == codes.NotFound {
		return docstore.ErrNotFound
	}
	if err != nil {
		return err
	}
	return snap.DataTo(dst)
}

// Create implements docstore.Store.
func (s *Store) Create(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	// A create that timed out may have committed; repeating it would turn
	// our own write into AlreadyExists.
	err := s.retry(ctx, "create", retryableCreate, func(ctx context.Context) error {
		_, err := s.doc(collection, id).Create(ctx, doc)
		return err
	})
	if status.Code(err) == codes.AlreadyExists {
		return docstore.ErrAlreadyExists
	}
	return err
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	return s.withRetries(ctx, "set", func(ctx context.Context) error {
		_, err := s.doc(collection, id).Set(ctx, doc)
		return err
	})
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	return s.withRetries(ctx, "delete", func(ctx context.Context) error {
		_, err := s.doc(collection, id).Delete(ctx)
		return err
	})
}

// Update implements docstore.Store with a Firestore transaction. Firestore
// retries contended transactions itself, so fn may run more than once.
func (s *Store) Update(ctx context.Context, collection, id string, fn docstore.UpdateFunc) error {
	if err := docstore.ValidatePath(collection, id); err != nil {
		return err
	}
	ref := s.doc(collection, id)

	return s.withRetries(ctx, "update", func(ctx context.Context) error {
		return s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
			var current *docstore.Snapshot
			snap, err := tx.Get(ref)
			switch {
			case status.Code(err) == codes.NotFound:
			case err != nil:
				return err
			default:
				current = wrap(snap)
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
				return tx.Delete(ref)
			}
			return tx.Set(ref, next)
		})
	})
}

// Query implements docstore.Store. Equality filters, the first
// array-contains filter, ordering, and (when nothing is left to filter
// locally) the limit run in Firestore. Firestore allows one array-contains
// per query, so further ones are applied in memory.
func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) iter.Seq2[*docstore.Snapshot, error] {
	return func(yield func(*docstore.Snapshot, error) bool) {
		if err := docstore.ValidateCollection(collection); err != nil {
			yield(nil, err)
			return
		}

		fq := s.client.Collection(collection).Query
		residual := docstore.Query{OrderBy: q.OrderBy, Descending: q.Descending, Limit: q.Limit}
		usedContains := false
		for _, f := range q.Filters {
			switch {
			case f.Op == docstore.OpEqual:
				fq = fq.WhereEntity(firestore.PropertyFilter{Path: f.Field, Operator: "==", Value: f.Value})
			case f.Op == docstore.OpArrayContains && !usedContains:
				fq = fq.WhereEntity(firestore.PropertyFilter{Path: f.Field, Operator: "array-contains", Value: f.Value})
				usedContains = true
			default:
				residual.Filters = append(residual.Filters, f)
			}
		}
		if q.OrderBy != "" {
			dir := firestore.Asc
			if q.Descending {
				dir = firestore.Desc
			}
			fq = fq.OrderBy(q.OrderBy, dir)
		}
		if q.Limit > 0 && len(residual.Filters) == 0 {
			fq = fq.Limit(q.Limit)
		}

		var snaps []*docstore.Snapshot
		err := s.withRetries(ctx, "query", func(ctx context.Context) error {
			snaps = snaps[:0]
			it := fq.Documents(ctx)
			defer it.Stop()
			for {
				doc, err := it.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				if err != nil {
					return err
				}
				snaps = append(snaps, wrap(doc))
			}
		})
		if err != nil {
			yield(nil, err)
			return
		}

		if len(residual.Filters) > 0 {
			// Order was applied by Firestore; Apply keeps it stable.
			residual.OrderBy = ""
			if snaps, err = residual.Apply(snaps); err != nil {
				yield(nil, err)
				return
			}
		}
		for _, snap := range snaps {
			if !yield(snap, nil) {
				return
			}
		}
	}
}

// Ping implements docstore.Store by reading a document that need not exist.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection("_health").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	s.logger.Info("closing firestore store")
	return s.client.Close()
}

func wrap(snap *firestore.DocumentSnapshot) *docstore.Snapshot {
	return docstore.NewSnapshot(snap.Ref.ID,
		func() (map[string]any, error) { return snap.Data(), nil },
		snap.DataTo)
}

// withRetries runs fn with a per-attempt timeout, retrying transient errors.
func (s *Store) withRetries(ctx context.Context, op string, fn func(context.Context) error) error {
	return s.retry(ctx, op, retryable, fn)
}

func (s *Store) retry(ctx context.Context, op string, shouldRetry func(error) bool, fn func(context.Context) error) error {
	var err error
	for attempt := range s.attempts {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err = fn(attemptCtx)
		cancel()
		if err == nil || !shouldRetry(err) || ctx.Err() != nil {
			return err
		}

		wait := backoffWait << attempt
		s.logger.Warn("firestore error, retrying", "op", op, "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

// retryableCreate excludes timeouts, after which the create may have been
// applied.
func retryableCreate(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || status.Code(err) == codes.DeadlineExceeded {
		return false
	}
	return retryable(err)
}

func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	st, ok := status.FromError(err)
	return ok && slices.Contains(retryCodes, st.Code())
}
