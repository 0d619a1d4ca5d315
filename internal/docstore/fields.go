package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

type sentinel string

// Field value sentinels. They are only valid as top-level field values.
const (
	// Null stores an explicit JSON null ("explicitly cleared").
	Null sentinel = "null"
	// Clear removes the field from the document.
	Clear sentinel = "clear"
	// ServerTimestamp is replaced by the store's authoritative write time.
	ServerTimestamp sentinel = "serverTimestamp"
)

func (s sentinel) MarshalJSON() ([]byte, error) {
	return nil, fmt.Errorf("docstore: sentinel %q is only valid as a top-level field value", string(s))
}

// StripUndefined returns a copy of fields without undefined values: untyped
// nil and nil pointers, slices, maps and interfaces. Use Null to store an
// explicit null and Clear to remove a stored field.
func StripUndefined(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if isUndefined(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isUndefined(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Normalized is a write payload with sentinels resolved and values reduced
// to their JSON form.
type Normalized struct {
	Set    map[string]any
	Delete []string
}

// Normalize strips undefined values, resolves sentinels against now and
// round-trips every value through JSON so that stored values compare equal to
// values decoded from stored documents.
func Normalize(fields map[string]any, now time.Time) (Normalized, error) {
	out := Normalized{Set: make(map[string]any, len(fields))}
	for k, v := range StripUndefined(fields) {
		if k == "" {
			return Normalized{}, fmt.Errorf("docstore: empty field name")
		}
		switch v {
		case Null:
			out.Set[k] = nil
			continue
		case Clear:
			out.Delete = append(out.Delete, k)
			continue
		case ServerTimestamp:
			v = now.UTC()
		}
		jv, err := toJSONValue(v)
		if err != nil {
			return Normalized{}, fmt.Errorf("docstore: field %q: %w", k, err)
		}
		out.Set[k] = jv
	}
	return out, nil
}

// Apply merges the normalized payload into data in place.
func (n Normalized) Apply(data map[string]any) {
	for k, v := range n.Set {
		data[k] = v
	}
	for _, k := range n.Delete {
		delete(data, k)
	}
}

// Map returns the payload as a fresh document body (deletes are dropped).
func (n Normalized) Map() map[string]any {
	out := make(map[string]any, len(n.Set))
	for k, v := range n.Set {
		out[k] = v
	}
	return out
}

func toJSONValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Encode turns a document body into its stored JSON form.
func Encode(data map[string]any) (json.RawMessage, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	return raw, nil
}

// DecodeMap turns a stored JSON body back into a document body.
func DecodeMap(raw json.RawMessage) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("docstore: decode document: %w", err)
	}
	return data, nil
}
