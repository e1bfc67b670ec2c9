package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reaction string

func TestQuery_MatchesNamedTypes(t *testing.T) {
	fields := map[string]any{"reaction": "liked", "favorited": true, "tags": []any{"a", "b"}}

	assert.True(t, Query{}.Where("reaction", reaction("liked")).Matches(fields))
	assert.False(t, Query{}.Where("reaction", reaction("disliked")).Matches(fields))
	assert.True(t, Query{}.Where("favorited", true).Matches(fields))
	assert.True(t, Query{}.WhereContains("tags", "b").Matches(fields))
	assert.False(t, Query{}.WhereContains("tags", "c").Matches(fields))
	assert.False(t, Query{}.Where("missing", "x").Matches(fields))
}

func TestQuery_BuildersDoNotAlias(t *testing.T) {
	base := Query{}.Where("a", 1)
	left := base.Where("b", 2)
	right := base.Where("c", 3)

	require.Len(t, left.Filters, 2)
	require.Len(t, right.Filters, 2)
	assert.Equal(t, "b", left.Filters[1].Field)
	assert.Equal(t, "c", right.Filters[1].Field)
}

func TestCompare(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 1, 900_000_000, time.UTC)
	late := time.Date(2026, 1, 1, 0, 0, 2, 0, time.UTC)

	// RFC 3339 strings with trimmed fractions do not sort lexically.
	assert.Equal(t, -1, Compare(early.Format(time.RFC3339Nano), late.Format(time.RFC3339Nano)))
	assert.Equal(t, -1, Compare(early, late))
	assert.Equal(t, 1, Compare(2, 1.5))
	assert.Equal(t, -1, Compare(nil, "x"))
	assert.Equal(t, 0, Compare("b", "b"))
	assert.Equal(t, -1, Compare(false, true))
}

func TestApply_OrderAndLimit(t *testing.T) {
	snaps := []*Snapshot{
		JSONSnapshot("a", []byte(`{"n":2,"owner":"x"}`)),
		JSONSnapshot("b", []byte(`{"n":3,"owner":"x"}`)),
		JSONSnapshot("c", []byte(`{"n":1,"owner":"y"}`)),
		JSONSnapshot("d", []byte(`{"n":5,"owner":"x"}`)),
	}
	out, err := Query{}.Where("owner", "x").Order("n", true).Take(2).Apply(snaps)
	require.NoError(t, err)

	got := make([]string, len(out))
	for i, s := range out {
		got[i] = s.ID()
	}
	assert.Equal(t, []string{"d", "b"}, got)
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, ValidatePath("jokes", "joke-1"))
	assert.NoError(t, ValidatePath(Join("users", "u1", "interactions"), "joke-1"))
	assert.ErrorIs(t, ValidatePath("users/u1", "x"), ErrInvalidPath)
	assert.ErrorIs(t, ValidatePath("jokes", ""), ErrInvalidPath)
	assert.ErrorIs(t, ValidatePath("jokes", "a/b"), ErrInvalidPath)
	assert.ErrorIs(t, ValidatePath("users//x", "id"), ErrInvalidPath)
}

func TestCollect(t *testing.T) {
	seq := func(yield func(*Snapshot, error) bool) {
		_ = yield(JSONSnapshot("a", []byte(`{"n":1}`)), nil) &&
			yield(JSONSnapshot("b", []byte(`{"n":2}`)), nil)
	}
	type doc struct {
		N int `json:"n"`
	}
	docs, err := Collect[doc](seq)
	require.NoError(t, err)
	assert.Equal(t, []doc{{N: 1}, {N: 2}}, docs)
}
