// Package document implements docstore.Store on a single PostgreSQL JSONB
// table. Subscriptions are refreshed from LISTEN/NOTIFY on the change channel
// when Listen runs, and from local writes otherwise.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Masterminds/squirrel"

	postgres "github.com/heartmarshall/salesdesk-backend/internal/adapter/postgres"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

const (
	table         = "documents"
	notifyChannel = "docstore_changes"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var columns = []string{"id", "data", "created_at", "updated_at"}

type dbPool interface {
	postgres.Querier
	postgres.Beginner
}

// Repo is the PostgreSQL document store.
type Repo struct {
	pool dbPool
	tx   *postgres.TxManager
	hub  *docstore.Hub
	now  func() time.Time
	log  *slog.Logger

	hubOpts   []docstore.HubOption
	listening atomic.Bool
}

// Option configures a Repo.
type Option func(*Repo)

// WithClock overrides the write timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

// WithFetchTimeout bounds every snapshot read done for subscriptions.
func WithFetchTimeout(d time.Duration) Option {
	return func(r *Repo) { r.hubOpts = append(r.hubOpts, docstore.WithFetchTimeout(d)) }
}

// New creates a document store over pool.
func New(pool dbPool, log *slog.Logger, opts ...Option) *Repo {
	r := &Repo{
		pool: pool,
		tx:   postgres.NewTxManager(pool),
		now:  time.Now,
		log:  log.With("store", "postgres"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.hub = docstore.NewHub(r, r.log, r.hubOpts...)
	return r
}

// Close stops push delivery. The pool is owned by the caller.
func (r *Repo) Close() {
	r.hub.Close()
}

// Subscribers returns the number of active subscriptions.
func (r *Repo) Subscribers() int {
	return r.hub.Subscribers()
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (r *Repo) Get(ctx context.Context, ref docstore.Ref) (*docstore.Document, error) {
	query, args, err := psql.Select(columns...).
		From(table).
		Where(squirrel.Eq{"collection": ref.Collection, "id": ref.ID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	doc, err := scanDocument(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "get", ref.Path())
	}
	return doc, nil
}

// Lookup implements docstore.Source.
func (r *Repo) Lookup(ctx context.Context, ref docstore.Ref) (*docstore.Document, error) {
	doc, err := r.Get(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return doc, err
}

// Query implements docstore.Source. Results are ordered by insertion.
func (r *Repo) Query(ctx context.Context, dq docstore.Query) ([]docstore.Document, error) {
	if err := dq.Validate(); err != nil {
		return nil, err
	}

	b := psql.Select(columns...).
		From(table).
		Where(squirrel.Eq{"collection": dq.Collection}).
		OrderBy("seq")
	for _, f := range dq.Filters {
		cond, err := filterExpr(f)
		if err != nil {
			return nil, err
		}
		b = b.Where(cond)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "query", dq.Key())
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, postgres.MapError(err, "query", dq.Key())
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "query", dq.Key())
	}
	return docs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*docstore.Document, error) {
	var (
		doc docstore.Document
		raw []byte
	)
	if err := row.Scan(&doc.ID, &raw, &doc.CreateTime, &doc.UpdateTime); err != nil {
		return nil, err
	}
	doc.Data = raw
	return &doc, nil
}

// ---------------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------------

func (r *Repo) SubscribeCollection(q docstore.Query, onSnapshot func([]docstore.Document), onError func(error)) docstore.Unsubscribe {
	return r.hub.SubscribeCollection(q, onSnapshot, onError)
}

func (r *Repo) SubscribeDocument(ref docstore.Ref, onSnapshot func(*docstore.Document), onError func(error)) docstore.Unsubscribe {
	return r.hub.SubscribeDocument(ref, onSnapshot, onError)
}
