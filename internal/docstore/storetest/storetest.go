// Package storetest is a conformance suite for docstore.Store backends.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchlineapp/punchline-server/internal/docstore"
)

// Doc is the document type the suite stores.
type Doc struct {
	Name      string    `json:"name" firestore:"name"`
	Owner     string    `json:"owner" firestore:"owner"`
	Active    bool      `json:"active" firestore:"active"`
	Tags      []string  `json:"tags" firestore:"tags"`
	Count     int       `json:"count" firestore:"count"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

// Run exercises every docstore.Store method. newStore must return an empty
// store; the suite closes nothing, so cleanup belongs to the caller.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Helper()

	tests := map[string]func(t *testing.T, s docstore.Store){
		"GetMissing":          testGetMissing,
		"SetGet":              testSetGet,
		"CreateConflict":      testCreateConflict,
		"DeleteIdempotent":    testDeleteIdempotent,
		"UpdateInsert":        testUpdateInsert,
		"UpdateModify":        testUpdateModify,
		"UpdateDelete":        testUpdateDelete,
		"UpdateSkip":          testUpdateSkip,
		"UpdateError":         testUpdateError,
		"UpdateConcurrent":    testUpdateConcurrent,
		"QueryFilters":        testQueryFilters,
		"QueryOrderLimit":     testQueryOrderLimit,
		"QuerySubcollections": testQuerySubcollections,
		"InvalidPath":         testInvalidPath,
		"Ping":                testPing,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			fn(t, newStore(t))
		})
	}
}

func testGetMissing(t *testing.T, s docstore.Store) {
	var d Doc
	err := s.Get(context.Background(), "things", "nope", &d)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func testSetGet(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	in := Doc{Name: "a", Owner: "u1", Active: true, Tags: []string{"x", "y"}, Count: 3, CreatedAt: created}

	require.NoError(t, s.Set(ctx, "things", "a", in))
	var out Doc
	require.NoError(t, s.Get(ctx, "things", "a", &out))
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Tags, out.Tags)
	assert.Equal(t, 3, out.Count)
	assert.True(t, created.Equal(out.CreatedAt))

	in.Count = 4
	require.NoError(t, s.Set(ctx, "things", "a", in))
	require.NoError(t, s.Get(ctx, "things", "a", &out))
	assert.Equal(t, 4, out.Count)
}

func testCreateConflict(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "things", "a", Doc{Name: "first"}))
	err := s.Create(ctx, "things", "a", Doc{Name: "second"})
	assert.ErrorIs(t, err, docstore.ErrAlreadyExists)

	var out Doc
	require.NoError(t, s.Get(ctx, "things", "a", &out))
	assert.Equal(t, "first", out.Name)
}

func testDeleteIdempotent(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "things", "a", Doc{Name: "a"}))
	require.NoError(t, s.Delete(ctx, "things", "a"))
	require.NoError(t, s.Delete(ctx, "things", "a"))

	var out Doc
	assert.ErrorIs(t, s.Get(ctx, "things", "a", &out), docstore.ErrNotFound)
}

func testUpdateInsert(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	err := s.Update(ctx, "things", "a", func(cur *docstore.Snapshot) (any, error) {
		assert.Nil(t, cur)
		return Doc{Name: "inserted"}, nil
	})
	require.NoError(t, err)

	var out Doc
	require.NoError(t, s.Get(ctx, "things", "a", &out))
	assert.Equal(t, "inserted", out.Name)
}

func testUpdateModify(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "things", "a", Doc{Name: "a", Count: 1}))

	err := s.Update(ctx, "things", "a", func(cur *docstore.Snapshot) (any, error) {
		require.NotNil(t, cur)
		assert.Equal(t, "a", cur.ID())
		var d Doc
		if err := cur.DataTo(&d); err != nil {
			return nil, err
		}
		d.Count++
		return d, nil
	})
	require.NoError(t, err)

	var out Doc
	require.NoError(t, s.Get(ctx, "things", "a", &out))
	assert.Equal(t, 2, out.Count)
}

func testUpdateDelete(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "things", "a", Doc{Name: "a"}))

	require.NoError(t, s.Update(ctx, "things", "a", func(*docstore.Snapshot) (any, error) {
		return nil, nil
	}))
	var out Doc
	assert.ErrorIs(t, s.Get(ctx, "things", "a", &out), docstore.ErrNotFound)

	// Deleting a missing document through Update is a no-op.
	require.NoError(t, s.Update(ctx, "things", "a", func(*docstore.Snapshot) (any, error) {
		return nil, nil
	}))
}

func testUpdateSkip(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "things", "a", Doc{Name: "kept"}))

	require.NoError(t, s.Update(ctx, "things", "a", func(*docstore.Snapshot) (any, error) {
		return Doc{Name: "ignored"}, docstore.ErrSkipWrite
	}))
	var out Doc
	require.NoError(t, s.Get(ctx, "things", "a", &out))
	assert.Equal(t, "kept", out.Name)
}

func testUpdateError(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.Update(ctx, "things", "a", func(*docstore.Snapshot) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func testUpdateConcurrent(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	const writers = 8

	var wg sync.WaitGroup
	for range writers {
		wg.Go(func() {
			err := s.Update(ctx, "counters", "c", func(cur *docstore.Snapshot) (any, error) {
				var d Doc
				if cur != nil {
					if err := cur.DataTo(&d); err != nil {
						return nil, err
					}
				}
				d.Count++
				return d, nil
			})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	var out Doc
	require.NoError(t, s.Get(ctx, "counters", "c", &out))
	assert.Equal(t, writers, out.Count)
}

func seed(t *testing.T, s docstore.Store, collection string, docs map[string]Doc) {
	t.Helper()
	for id, d := range docs {
		require.NoError(t, s.Set(context.Background(), collection, id, d))
	}
}

func ids(t *testing.T, seq func(func(*docstore.Snapshot, error) bool)) []string {
	t.Helper()
	var out []string
	for snap, err := range seq {
		require.NoError(t, err)
		out = append(out, snap.ID())
	}
	return out
}

func testQueryFilters(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	seed(t, s, "things", map[string]Doc{
		"a": {Name: "a", Owner: "u1", Active: true, Tags: []string{"bedtime", "5-7"}},
		"b": {Name: "b", Owner: "u1", Active: false, Tags: []string{"bedtime"}},
		"c": {Name: "c", Owner: "u2", Active: true, Tags: []string{"5-7"}},
	})

	all := ids(t, s.Query(ctx, "things", docstore.Query{}))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, all)

	byOwner := ids(t, s.Query(ctx, "things", docstore.Query{}.Where("owner", "u1")))
	assert.ElementsMatch(t, []string{"a", "b"}, byOwner)

	active := ids(t, s.Query(ctx, "things", docstore.Query{}.Where("active", true)))
	assert.ElementsMatch(t, []string{"a", "c"}, active)

	both := ids(t, s.Query(ctx, "things", docstore.Query{}.
		WhereContains("tags", "bedtime").
		WhereContains("tags", "5-7")))
	assert.Equal(t, []string{"a"}, both)

	none := ids(t, s.Query(ctx, "empty", docstore.Query{}))
	assert.Empty(t, none)
}

func testQueryOrderLimit(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := map[string]Doc{}
	for i := range 5 {
		// Sub-second offsets catch lexical comparison of RFC 3339 strings.
		docs[fmt.Sprintf("d%d", i)] = Doc{Name: "d", CreatedAt: base.Add(time.Duration(i)*time.Second + time.Duration(i*100)*time.Millisecond)}
	}
	seed(t, s, "things", docs)

	desc := ids(t, s.Query(ctx, "things", docstore.Query{}.Order("created_at", true)))
	assert.Equal(t, []string{"d4", "d3", "d2", "d1", "d0"}, desc)

	limited := ids(t, s.Query(ctx, "things", docstore.Query{}.Order("created_at", false).Take(2)))
	assert.Equal(t, []string{"d0", "d1"}, limited)
}

func testQuerySubcollections(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	seed(t, s, "users", map[string]Doc{"u1": {Name: "user"}})
	seed(t, s, docstore.Join("users", "u1", "items"), map[string]Doc{"i1": {Name: "item"}})
	seed(t, s, docstore.Join("users", "u2", "items"), map[string]Doc{"i2": {Name: "item"}})

	assert.Equal(t, []string{"u1"}, ids(t, s.Query(ctx, "users", docstore.Query{})))
	assert.Equal(t, []string{"i1"}, ids(t, s.Query(ctx, docstore.Join("users", "u1", "items"), docstore.Query{})))
}

func testInvalidPath(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	var d Doc
	assert.ErrorIs(t, s.Get(ctx, "users/u1", "x", &d), docstore.ErrInvalidPath)
	assert.ErrorIs(t, s.Set(ctx, "things", "a/b", d), docstore.ErrInvalidPath)
	assert.ErrorIs(t, s.Delete(ctx, "things", ""), docstore.ErrInvalidPath)
}

func testPing(t *testing.T, s docstore.Store) {
	assert.NoError(t, s.Ping(context.Background()))
}
