package document

import (
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
)

// filterExpr renders a query filter as a JSONB comparison on a top-level
// field. Values are compared in their JSON form, so 5 and 5.0 are equal.
func filterExpr(f docstore.Filter) (squirrel.Sqlizer, error) {
	switch f.Op {
	case docstore.OpEqual:
		raw, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Field, err)
		}
		return squirrel.Expr("data -> ?::text = ?::jsonb", f.Field, string(raw)), nil

	case docstore.OpIn:
		raw, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Field, err)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("filter %s: in needs a list: %w", f.Field, err)
		}
		values := make([]string, len(items))
		for i, item := range items {
			values[i] = string(item)
		}
		return squirrel.Expr("data -> ?::text = ANY(?::jsonb[])", f.Field, values), nil
	}
	return nil, fmt.Errorf("filter %s: unsupported op %q", f.Field, f.Op)
}
