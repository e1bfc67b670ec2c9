package docstore

import (
	"cmp"
	"reflect"
	"slices"
	"time"
)

// Op is a filter operator.
type Op int

const (
	// OpEqual matches fields equal to the value.
	OpEqual Op = iota
	// OpArrayContains matches array fields holding the value.
	OpArrayContains
)

// Filter restricts a query to documents whose Field satisfies Op with Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query selects documents from a collection. The zero Query returns every
// document in backend order.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	// Limit caps the number of results; 0 means no limit.
	Limit int
}

// Where adds an equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(slices.Clip(q.Filters), Filter{Field: field, Op: OpEqual, Value: Normalize(value)})
	return q
}

// WhereContains adds an array-contains filter.
func (q Query) WhereContains(field string, value any) Query {
	q.Filters = append(slices.Clip(q.Filters), Filter{Field: field, Op: OpArrayContains, Value: Normalize(value)})
	return q
}

// Order sorts results by field.
func (q Query) Order(field string, descending bool) Query {
	q.OrderBy = field
	q.Descending = descending
	return q
}

// Take caps the number of results.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Matches reports whether fields satisfy every filter.
func (q Query) Matches(fields map[string]any) bool {
	for _, f := range q.Filters {
		v, ok := fields[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if !equal(v, f.Value) {
				return false
			}
		case OpArrayContains:
			arr, ok := v.([]any)
			if !ok {
				return false
			}
			if !slices.ContainsFunc(arr, func(e any) bool { return equal(e, f.Value) }) {
				return false
			}
		}
	}
	return true
}

// Apply filters, orders, and limits snapshots in memory. Backends without
// native query support use it directly.
func (q Query) Apply(snaps []*Snapshot) ([]*Snapshot, error) {
	type row struct {
		snap *Snapshot
		key  any
	}
	rows := make([]row, 0, len(snaps))
	for _, s := range snaps {
		fields, err := s.Fields()
		if err != nil {
			return nil, err
		}
		if !q.Matches(fields) {
			continue
		}
		rows = append(rows, row{snap: s, key: fields[q.OrderBy]})
	}

	if q.OrderBy != "" {
		slices.SortStableFunc(rows, func(a, b row) int {
			c := Compare(a.key, b.key)
			if q.Descending {
				return -c
			}
			return c
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]*Snapshot, len(rows))
	for i, r := range rows {
		out[i] = r.snap
	}
	return out, nil
}

// Normalize reduces named scalar types (like string enums) to their
// underlying builtin type so values from different decoders compare equal.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, string, bool, float64, time.Time:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		return v
	}
}

func equal(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Equal(tb)
		}
	}
	return a == b
}

// Compare orders two field values. Times (including RFC 3339 strings, which
// is how JSON backends hold them) compare chronologically; missing values
// sort first.
func Compare(a, b any) int {
	a, b = Normalize(a), Normalize(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb)
		}
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return 0
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		return t, err == nil
	}
	return time.Time{}, false
}
