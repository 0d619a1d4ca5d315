// Package memstore is an in-process docstore.Store. It backs local
// development and tests, and can inject failures into writes and the push
// channel.
package memstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

type record struct {
	seq        uint64
	data       map[string]any
	createTime time.Time
	updateTime time.Time
}

// Store keeps documents in memory, ordered by insertion.
type Store struct {
	hub *docstore.Hub
	now func() time.Time

	mu          sync.RWMutex
	collections map[string]map[string]*record
	seq         uint64
	writeErr    error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the write timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		now:         time.Now,
		collections: make(map[string]map[string]*record),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = docstore.NewHub(s, log.With("store", "memory"))
	return s
}

// Close stops push delivery.
func (s *Store) Close() {
	s.hub.Close()
}

// FailWrites makes every following write fail with err. Pass nil to reset.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// InjectError delivers err to every subscription on collection, as if the
// push channel had failed.
func (s *Store) InjectError(collection string, err error) {
	s.hub.Fail(collection, err)
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	return s.hub.Subscribers()
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *Store) Get(_ context.Context, ref docstore.Ref) (*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.collections[ref.Collection][ref.ID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref.Path(), domain.ErrNotFound)
	}
	return toDocument(ref.ID, rec)
}

// Query implements docstore.Source.
func (s *Store) Query(_ context.Context, q docstore.Query) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		id  string
		rec *record
	}
	coll := s.collections[q.Collection]
	entries := make([]entry, 0, len(coll))
	for id, rec := range coll {
		if q.Matches(rec.data) {
			entries = append(entries, entry{id, rec})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].rec.seq < entries[j].rec.seq })

	docs := make([]docstore.Document, 0, len(entries))
	for _, e := range entries {
		doc, err := toDocument(e.id, e.rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Lookup implements docstore.Source.
func (s *Store) Lookup(ctx context.Context, ref docstore.Ref) (*docstore.Document, error) {
	s.mu.RLock()
	_, ok := s.collections[ref.Collection][ref.ID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return s.Get(ctx, ref)
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

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := docstore.NewID()
	if err := s.Batch(ctx, []docstore.Op{docstore.CreateOp(docstore.Ref{Collection: collection, ID: id}, fields)}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, ref docstore.Ref, fields map[string]any, merge bool) error {
	return s.Batch(ctx, []docstore.Op{docstore.SetOp(ref, fields, merge)})
}

func (s *Store) UpdateFields(ctx context.Context, ref docstore.Ref, fields map[string]any) error {
	return s.Batch(ctx, []docstore.Op{docstore.UpdateOp(ref, fields)})
}

func (s *Store) Delete(ctx context.Context, ref docstore.Ref) error {
	return s.Batch(ctx, []docstore.Op{docstore.DeleteOp(ref)})
}

// Batch validates every op against the current state before applying any of
// them, so a failing batch leaves the store untouched.
func (s *Store) Batch(ctx context.Context, ops []docstore.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.writeErr != nil {
		err := s.writeErr
		s.mu.Unlock()
		return err
	}

	now := s.now().UTC()
	payloads := make([]docstore.Normalized, len(ops))
	pending := make(map[string]bool)
	for i, op := range ops {
		if op.Ref.Collection == "" || op.Ref.ID == "" {
			s.mu.Unlock()
			return fmt.Errorf("%s op: empty document path: %w", op.Kind, domain.ErrValidation)
		}
		n, err := docstore.Normalize(op.Fields, now)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		payloads[i] = n

		path := op.Ref.Path()
		_, stored := s.collections[op.Ref.Collection][op.Ref.ID]
		exists, seen := pending[path]
		if !seen {
			exists = stored
		}
		switch op.Kind {
		case docstore.OpCreate:
			if exists {
				s.mu.Unlock()
				return fmt.Errorf("create %s: %w", path, domain.ErrAlreadyExists)
			}
			pending[path] = true
		case docstore.OpUpdate:
			if !exists {
				s.mu.Unlock()
				return fmt.Errorf("update %s: %w", path, domain.ErrNotFound)
			}
		case docstore.OpSet:
			pending[path] = true
		case docstore.OpDelete:
			pending[path] = false
		default:
			s.mu.Unlock()
			return fmt.Errorf("unknown op kind %d", op.Kind)
		}
	}

	touched := make(map[string]struct{})
	for i, op := range ops {
		s.apply(op, payloads[i], now)
		touched[op.Ref.Collection] = struct{}{}
	}
	s.mu.Unlock()

	for collection := range touched {
		s.hub.Notify(collection)
	}
	return nil
}

func (s *Store) apply(op docstore.Op, n docstore.Normalized, now time.Time) {
	coll := s.collections[op.Ref.Collection]
	if coll == nil {
		coll = make(map[string]*record)
		s.collections[op.Ref.Collection] = coll
	}
	rec, exists := coll[op.Ref.ID]

	switch op.Kind {
	case docstore.OpDelete:
		delete(coll, op.Ref.ID)
		return
	case docstore.OpUpdate:
		n.Apply(rec.data)
		rec.updateTime = now
		return
	case docstore.OpSet:
		if exists {
			if !op.Merge {
				rec.data = map[string]any{}
			}
			n.Apply(rec.data)
			rec.updateTime = now
			return
		}
	}

	s.seq++
	coll[op.Ref.ID] = &record{
		seq:        s.seq,
		data:       n.Map(),
		createTime: now,
		updateTime: now,
	}
}

func toDocument(id string, rec *record) (*docstore.Document, error) {
	raw, err := docstore.Encode(rec.data)
	if err != nil {
		return nil, err
	}
	return &docstore.Document{
		ID:         id,
		Data:       raw,
		CreateTime: rec.createTime,
		UpdateTime: rec.updateTime,
	}, nil
}
