package docstore

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Source reads current state for the hub. Lookup returns nil, nil when the
// document does not exist.
type Source interface {
	Query(ctx context.Context, q Query) ([]Document, error)
	Lookup(ctx context.Context, ref Ref) (*Document, error)
}

const defaultFetchTimeout = 10 * time.Second

// Hub fans store changes out to subscriptions. Every backend owns one hub
// and calls Notify after a committed write (or when its change feed reports
// one). All callbacks run on a single delivery goroutine, in the order the
// events were queued.
type Hub struct {
	src          Source
	log          *slog.Logger
	fetchTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []hubEvent
	subs   map[uint64]*subscription
	nextID uint64
	closed bool
	done   chan struct{}
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithFetchTimeout bounds each snapshot read.
func WithFetchTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.fetchTimeout = d
		}
	}
}

type eventKind int

const (
	eventInitial eventKind = iota
	eventNotify
	eventFail
)

type hubEvent struct {
	kind       eventKind
	sub        *subscription
	collection string
	err        error
}

type subscription struct {
	id         uint64
	collection string
	query      Query
	ref        *Ref

	onCollection func([]Document)
	onDocument   func(*Document)
	onError      func(error)

	active atomic.Bool
}

// NewHub starts the delivery goroutine. Call Close to stop it.
func NewHub(src Source, log *slog.Logger, opts ...HubOption) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		src:          src,
		log:          log,
		fetchTimeout: defaultFetchTimeout,
		ctx:          ctx,
		cancel:       cancel,
		subs:         make(map[uint64]*subscription),
		done:         make(chan struct{}),
	}
	h.cond = sync.NewCond(&h.mu)
	for _, opt := range opts {
		opt(h)
	}
	go h.run()
	return h
}

// SubscribeCollection registers a query subscription. The current result set
// is delivered asynchronously as the first snapshot.
func (h *Hub) SubscribeCollection(q Query, onSnapshot func([]Document), onError func(error)) Unsubscribe {
	if err := q.Validate(); err != nil {
		go onError(err)
		return func() {}
	}
	return h.subscribe(&subscription{
		collection:   q.Collection,
		query:        q,
		onCollection: onSnapshot,
		onError:      onError,
	})
}

// SubscribeDocument registers a single-document subscription. A missing
// document is delivered as nil.
func (h *Hub) SubscribeDocument(ref Ref, onSnapshot func(*Document), onError func(error)) Unsubscribe {
	r := ref
	return h.subscribe(&subscription{
		collection: ref.Collection,
		ref:        &r,
		onDocument: onSnapshot,
		onError:    onError,
	})
}

func (h *Hub) subscribe(sub *subscription) Unsubscribe {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		go sub.onError(ErrClosed)
		return func() {}
	}
	h.nextID++
	sub.id = h.nextID
	sub.active.Store(true)
	h.subs[sub.id] = sub
	h.queue = append(h.queue, hubEvent{kind: eventInitial, sub: sub})
	h.cond.Signal()
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			h.mu.Lock()
			delete(h.subs, sub.id)
			h.mu.Unlock()
		})
	}
}

// Notify schedules a fresh snapshot for every subscription on collection. An
// empty collection addresses all subscriptions.
func (h *Hub) Notify(collection string) {
	h.enqueue(hubEvent{kind: eventNotify, collection: collection})
}

// Fail reports err to every subscription on collection. An empty collection
// addresses all subscriptions.
func (h *Hub) Fail(collection string, err error) {
	h.enqueue(hubEvent{kind: eventFail, collection: collection, err: err})
}

func (h *Hub) enqueue(ev hubEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.queue = append(h.queue, ev)
	h.cond.Signal()
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close stops delivery. Pending events are dropped and later subscriptions
// receive ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		<-h.done
		return
	}
	h.closed = true
	h.queue = nil
	for id, sub := range h.subs {
		sub.active.Store(false)
		delete(h.subs, id)
	}
	h.cond.Broadcast()
	h.mu.Unlock()

	h.cancel()
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		h.mu.Lock()
		for len(h.queue) == 0 && !h.closed {
			h.cond.Wait()
		}
		if h.closed {
			h.mu.Unlock()
			return
		}
		ev := h.queue[0]
		h.queue = h.queue[1:]
		targets := h.targetsLocked(ev)
		h.mu.Unlock()

		h.dispatch(ev, targets)
	}
}

func (h *Hub) targetsLocked(ev hubEvent) []*subscription {
	if ev.kind == eventInitial {
		return []*subscription{ev.sub}
	}
	out := make([]*subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if ev.collection == "" || sub.collection == ev.collection {
			out = append(out, sub)
		}
	}
	sortByID(out)
	return out
}

func (h *Hub) dispatch(ev hubEvent, targets []*subscription) {
	if ev.kind == eventFail {
		for _, sub := range targets {
			if sub.active.Load() {
				sub.onError(ev.err)
			}
		}
		return
	}

	// Subscriptions sharing a query identity share one read per event.
	results := make(map[string]fetchResult)
	for _, sub := range targets {
		if !sub.active.Load() {
			continue
		}
		key := sub.key()
		res, ok := results[key]
		if !ok {
			res = h.fetch(sub)
			results[key] = res
		}
		if !sub.active.Load() {
			continue
		}
		switch {
		case res.err != nil:
			h.log.Debug("docstore snapshot read failed",
				slog.String("target", key),
				slog.String("error", res.err.Error()),
			)
			sub.onError(res.err)
		case sub.ref != nil:
			sub.onDocument(res.doc)
		default:
			sub.onCollection(res.docs)
		}
	}
}

type fetchResult struct {
	docs []Document
	doc  *Document
	err  error
}

func (h *Hub) fetch(sub *subscription) fetchResult {
	ctx, cancel := context.WithTimeout(h.ctx, h.fetchTimeout)
	defer cancel()

	if sub.ref != nil {
		doc, err := h.src.Lookup(ctx, *sub.ref)
		return fetchResult{doc: doc, err: err}
	}
	docs, err := h.src.Query(ctx, sub.query)
	if docs == nil && err == nil {
		docs = []Document{}
	}
	return fetchResult{docs: docs, err: err}
}

func (s *subscription) key() string {
	if s.ref != nil {
		return "doc:" + s.ref.Path()
	}
	return "query:" + s.query.Key()
}

func sortByID(subs []*subscription) {
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
}
