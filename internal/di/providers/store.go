package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/punchlineapp/punchline-server/internal/config"
	"github.com/punchlineapp/punchline-server/internal/docstore"
	"github.com/punchlineapp/punchline-server/internal/docstore/badgerstore"
	"github.com/punchlineapp/punchline-server/internal/docstore/firestorestore"
	"github.com/punchlineapp/punchline-server/internal/docstore/sqlitestore"
	"github.com/punchlineapp/punchline-server/internal/logger"
	"github.com/punchlineapp/punchline-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured document store and wires the
// repositories over it.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	docs, err := OpenDocStore(ctx, cfg.Store, log.Logger)
	if err != nil {
		return nil, err
	}

	if err := docs.Ping(ctx); err != nil {
		_ = docs.Close()
		return nil, fmt.Errorf("document store not reachable: %w", err)
	}

	return &StoreHandle{Store: store.New(docs, log.Logger)}, nil
}

// OpenDocStore opens the backend named by cfg.Backend.
func OpenDocStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (docstore.Store, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		docs, err := badgerstore.Open(cfg.BadgerPath(), log)
		if err != nil {
			return nil, err
		}
		log.Info("Document store initialized", "backend", cfg.Backend, "path", cfg.BadgerPath())
		return docs, nil

	case config.BackendSQLite:
		docs, err := sqlitestore.Open(cfg.SQLitePath(), log)
		if err != nil {
			return nil, err
		}
		log.Info("Document store initialized", "backend", cfg.Backend, "path", cfg.SQLitePath())
		return docs, nil

	case config.BackendFirestore:
		docs, err := firestorestore.Open(ctx, firestorestore.Config{
			Project:         cfg.FirestoreProject,
			Database:        cfg.FirestoreDatabase,
			CredentialsFile: cfg.CredentialsFile,
		}, log)
		if err != nil {
			return nil, err
		}
		log.Info("Document store initialized",
			"backend", cfg.Backend,
			"project", cfg.FirestoreProject,
			"database", cfg.FirestoreDatabase,
		)
		return docs, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
