// Package redisstore implements docstore.Store on Redis. Each document is a
// hash, each collection keeps a sorted set of ids ordered by insertion, and
// every committed batch is published on a per-collection change channel.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/salesdesk-backend/internal/config"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

const (
	fieldData    = "data"
	fieldCreated = "created"
	fieldUpdated = "updated"
	fieldSeq     = "seq"
)

// Store is the Redis document store.
type Store struct {
	client *redis.Client
	prefix string
	hub    *docstore.Hub
	now    func() time.Time
	log    *slog.Logger

	hubOpts   []docstore.HubOption
	retries   int
	listening atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the write timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithFetchTimeout bounds every snapshot read done for subscriptions.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) { s.hubOpts = append(s.hubOpts, docstore.WithFetchTimeout(d)) }
}

// Connect opens a client from configuration and checks the server answers.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// New creates a store whose keys all start with prefix.
func New(client *redis.Client, prefix string, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		client:  client,
		prefix:  prefix,
		now:     time.Now,
		log:     log.With("store", "redis"),
		retries: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = docstore.NewHub(s, s.log, s.hubOpts...)
	return s
}

// Close stops push delivery. The client is owned by the caller.
func (s *Store) Close() {
	s.hub.Close()
}

// Ping checks the redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	return s.hub.Subscribers()
}

func (s *Store) docKey(ref docstore.Ref) string {
	return s.prefix + ":doc:" + ref.Collection + ":" + ref.ID
}

func (s *Store) indexKey(collection string) string {
	return s.prefix + ":idx:" + collection
}

func (s *Store) seqKey() string {
	return s.prefix + ":seq"
}

func (s *Store) channel(collection string) string {
	return s.prefix + ":changes:" + collection
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *Store) Get(ctx context.Context, ref docstore.Ref) (*docstore.Document, error) {
	vals, err := s.client.HGetAll(ctx, s.docKey(ref)).Result()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref.Path(), err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s: %w", ref.Path(), domain.ErrNotFound)
	}
	return toDocument(ref.ID, vals)
}

// Lookup implements docstore.Source.
func (s *Store) Lookup(ctx context.Context, ref docstore.Ref) (*docstore.Document, error) {
	doc, err := s.Get(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return doc, err
}

// Query implements docstore.Source. Filters are evaluated client side.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(q.Collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Key(), err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.docKey(docstore.Ref{Collection: q.Collection, ID: id}))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Key(), err)
	}

	docs := []docstore.Document{}
	for i, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) == 0 {
			continue
		}
		doc, err := toDocument(ids[i], vals)
		if err != nil {
			return nil, err
		}
		if q.MatchesRaw(doc.Data) {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func toDocument(id string, vals map[string]string) (*docstore.Document, error) {
	created, err := time.Parse(time.RFC3339Nano, vals[fieldCreated])
	if err != nil {
		return nil, fmt.Errorf("document %s: created: %w", id, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, vals[fieldUpdated])
	if err != nil {
		return nil, fmt.Errorf("document %s: updated: %w", id, err)
	}
	return &docstore.Document{
		ID:         id,
		Data:       []byte(vals[fieldData]),
		CreateTime: created,
		UpdateTime: updated,
	}, nil
}

// ---------------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------------

func (s *Store) SubscribeCollection(q docstore.Query, onSnapshot func([]docstore.Document), onError func(error)) docstore.Unsubscribe {
	return s.hub.SubscribeCollection(q, onSnapshot, onError)
}

func (s *Store) SubscribeDocument(ref docstore.Ref, onSnapshot func(*docstore.Document), onError func(error)) docstore.Unsubscribe {
	return s.hub.SubscribeDocument(ref, onSnapshot, onError)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseSeq(v string) int64 {
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}
