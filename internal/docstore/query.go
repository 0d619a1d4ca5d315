package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// FilterOp is a comparison supported by collection queries.
type FilterOp string

const (
	OpEqual FilterOp = "=="
	OpIn    FilterOp = "in"
)

// Filter restricts a collection query to documents whose top-level Field
// compares to Value. For OpIn, Value must be a slice.
type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

// Query selects documents of one collection. Results are ordered by
// insertion.
type Query struct {
	Collection string
	Filters    []Filter
}

// CollectionQuery returns an unfiltered query over collection.
func CollectionQuery(collection string) Query {
	return Query{Collection: collection}
}

// Where returns a copy of q with an extra filter.
func (q Query) Where(field string, op FilterOp, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// Validate reports malformed queries.
func (q Query) Validate() error {
	if q.Collection == "" || strings.Contains(q.Collection, "/") {
		return fmt.Errorf("docstore: invalid collection %q", q.Collection)
	}
	for _, f := range q.Filters {
		if f.Field == "" {
			return fmt.Errorf("docstore: filter with empty field")
		}
		switch f.Op {
		case OpEqual:
		case OpIn:
			rv := reflect.ValueOf(f.Value)
			if f.Value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
				return fmt.Errorf("docstore: filter %q: %q needs a slice value", f.Field, f.Op)
			}
		default:
			return fmt.Errorf("docstore: filter %q: unsupported operator %q", f.Field, f.Op)
		}
	}
	return nil
}

// Key is the logical identity of the query: collection path plus the filters
// in canonical order. Two queries with equal keys select the same documents.
func (q Query) Key() string {
	parts := make([]string, 0, len(q.Filters))
	for _, f := range q.Filters {
		raw, err := json.Marshal(f.Value)
		if err != nil {
			raw = []byte(fmt.Sprintf("%v", f.Value))
		}
		parts = append(parts, f.Field+" "+string(f.Op)+" "+string(raw))
	}
	sort.Strings(parts)
	if len(parts) == 0 {
		return q.Collection
	}
	return q.Collection + "?" + strings.Join(parts, "&")
}

// Matches reports whether a decoded document body satisfies every filter.
func (q Query) Matches(data map[string]any) bool {
	for _, f := range q.Filters {
		got, ok := data[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			want, err := toJSONValue(f.Value)
			if err != nil || !reflect.DeepEqual(got, want) {
				return false
			}
		case OpIn:
			if !matchesAny(got, f.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// MatchesRaw is Matches over a stored JSON body.
func (q Query) MatchesRaw(raw json.RawMessage) bool {
	if len(q.Filters) == 0 {
		return true
	}
	data, err := DecodeMap(raw)
	if err != nil {
		return false
	}
	return q.Matches(data)
}

func matchesAny(got, values any) bool {
	want, err := toJSONValue(values)
	if err != nil {
		return false
	}
	list, ok := want.([]any)
	if !ok {
		return false
	}
	for _, v := range list {
		if reflect.DeepEqual(got, v) {
			return true
		}
	}
	return false
}
