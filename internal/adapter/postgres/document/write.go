package document

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	postgres "github.com/heartmarshall/salesdesk-backend/internal/adapter/postgres"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

func (r *Repo) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := docstore.NewID()
	if err := r.Batch(ctx, []docstore.Op{docstore.CreateOp(docstore.Ref{Collection: collection, ID: id}, fields)}); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) Set(ctx context.Context, ref docstore.Ref, fields map[string]any, merge bool) error {
	return r.Batch(ctx, []docstore.Op{docstore.SetOp(ref, fields, merge)})
}

func (r *Repo) UpdateFields(ctx context.Context, ref docstore.Ref, fields map[string]any) error {
	return r.Batch(ctx, []docstore.Op{docstore.UpdateOp(ref, fields)})
}

func (r *Repo) Delete(ctx context.Context, ref docstore.Ref) error {
	return r.Batch(ctx, []docstore.Op{docstore.DeleteOp(ref)})
}

// Batch applies ops in one transaction. The change trigger publishes one
// notification per touched collection on commit.
func (r *Repo) Batch(ctx context.Context, ops []docstore.Op) error {
	if len(ops) == 0 {
		return nil
	}

	now := r.now().UTC()
	payloads := make([]docstore.Normalized, len(ops))
	for i, op := range ops {
		if op.Ref.Collection == "" || op.Ref.ID == "" {
			return fmt.Errorf("%s op: empty document path: %w", op.Kind, domain.ErrValidation)
		}
		n, err := docstore.Normalize(op.Fields, now)
		if err != nil {
			return err
		}
		payloads[i] = n
	}

	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		for i, op := range ops {
			if err := execOp(ctx, q, op, payloads[i], now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !r.listening.Load() {
		touched := make(map[string]struct{})
		for _, op := range ops {
			if _, ok := touched[op.Ref.Collection]; ok {
				continue
			}
			touched[op.Ref.Collection] = struct{}{}
			r.hub.Notify(op.Ref.Collection)
		}
	}
	return nil
}

func execOp(ctx context.Context, q postgres.Querier, op docstore.Op, n docstore.Normalized, now time.Time) error {
	path := op.Ref.Path()
	where := squirrel.Eq{"collection": op.Ref.Collection, "id": op.Ref.ID}

	var (
		b   squirrel.Sqlizer
		err error
	)
	switch op.Kind {
	case docstore.OpCreate:
		b, err = insert(op.Ref, n, now)
	case docstore.OpSet:
		var ins squirrel.InsertBuilder
		ins, err = insert(op.Ref, n, now)
		if op.Merge {
			b = ins.Suffix("ON CONFLICT (collection, id) DO UPDATE SET data = (documents.data || EXCLUDED.data) - ?::text[], updated_at = EXCLUDED.updated_at", deletes(n))
		} else {
			b = ins.Suffix("ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at")
		}
	case docstore.OpUpdate:
		var set []byte
		set, err = docstore.Encode(n.Set)
		b = psql.Update(table).
			Set("data", squirrel.Expr("(data || ?::jsonb) - ?::text[]", string(set), deletes(n))).
			Set("updated_at", now).
			Where(where)
	case docstore.OpDelete:
		b = psql.Delete(table).Where(where)
	default:
		return fmt.Errorf("unknown op kind %d", op.Kind)
	}
	if err != nil {
		return err
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op.Kind, err)
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, op.Kind.String(), path)
	}
	if op.Kind == docstore.OpUpdate && tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: %w", path, domain.ErrNotFound)
	}
	return nil
}

func insert(ref docstore.Ref, n docstore.Normalized, now time.Time) (squirrel.InsertBuilder, error) {
	data, err := docstore.Encode(n.Map())
	if err != nil {
		return squirrel.InsertBuilder{}, err
	}
	return psql.Insert(table).
		Columns("collection", "id", "data", "created_at", "updated_at").
		Values(ref.Collection, ref.ID, string(data), now, now), nil
}

// deletes never returns nil: jsonb - NULL is NULL.
func deletes(n docstore.Normalized) []string {
	if n.Delete == nil {
		return []string{}
	}
	return n.Delete
}
