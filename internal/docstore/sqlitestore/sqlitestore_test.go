package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchlineapp/punchline-server/internal/docstore"
	"github.com/punchlineapp/punchline-server/internal/docstore/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		return newTestStore(t)
	})
}

func TestOpen_WALMode(t *testing.T) {
	s := newTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestQuery_PushesDownStringEquality(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "jokes", "a", storetest.Doc{Owner: "u1"}))
	require.NoError(t, s.Set(ctx, "jokes", "b", storetest.Doc{Owner: "u2"}))

	docs, err := docstore.Collect[storetest.Doc](s.Query(ctx, "jokes", docstore.Query{}.Where("owner", "u2")))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "u2", docs[0].Owner)
}
