package mirror

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

// Record is a mirrored domain record.
type Record interface {
	RecordID() string
}

// Decoder maps a stored document to a record, including its id.
type Decoder[T any] func(doc docstore.Document) (T, error)

// JSONDecoder decodes the document body as JSON and stamps the id with setID.
func JSONDecoder[T any](setID func(*T, string)) Decoder[T] {
	return func(doc docstore.Document) (T, error) {
		var v T
		if err := doc.Decode(&v); err != nil {
			return v, err
		}
		setID(&v, doc.ID)
		return v, nil
	}
}

// UUIDDecoder is JSONDecoder for records keyed by uuid. A document whose id
// does not parse fails to decode.
func UUIDDecoder[T any](setID func(*T, uuid.UUID)) Decoder[T] {
	return func(doc docstore.Document) (T, error) {
		var v T
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return v, fmt.Errorf("parse id: %w", err)
		}
		if err := doc.Decode(&v); err != nil {
			return v, err
		}
		setID(&v, id)
		return v, nil
	}
}

// CollectionSource opens collection subscriptions.
type CollectionSource interface {
	SubscribeCollection(q docstore.Query, onSnapshot func([]docstore.Document), onError func(error)) docstore.Unsubscribe
}

// State is the observable state of a collection mirror. Records is replaced
// wholesale on every push and must not be modified.
type State[T any] struct {
	Records []T
	Loading bool
	Err     error
}

// Collection mirrors the result set of one query at a time.
type Collection[T Record] struct {
	src    CollectionSource
	decode Decoder[T]
	core   *live[State[T]]
}

// NewCollection creates a mirror without a target: no records, not loading.
func NewCollection[T Record](src CollectionSource, decode Decoder[T]) *Collection[T] {
	return &Collection[T]{
		src:    src,
		decode: decode,
		core:   newLive(State[T]{Records: []T{}}),
	}
}

// SetQuery switches the mirror to q. A nil query drops the subscription and
// yields an empty, not-loading state. Queries are compared by Key, so an
// equivalent query does not resubscribe.
func (c *Collection[T]) SetQuery(q *docstore.Query) {
	if q == nil {
		c.core.switchTarget("", nil, func(s *State[T]) {
			*s = State[T]{Records: []T{}}
		})
		return
	}

	query := *q
	key := query.Key()
	c.core.switchTarget(key, func(gen uint64) docstore.Unsubscribe {
		return c.src.SubscribeCollection(query,
			func(docs []docstore.Document) { c.push(gen, key, docs) },
			func(err error) { c.fail(gen, key, err) },
		)
	}, func(s *State[T]) {
		*s = State[T]{Records: []T{}, Loading: true}
	})
}

// Key returns the identity of the current query, or false without one.
func (c *Collection[T]) Key() (string, bool) {
	return c.core.identity()
}

// State returns the current state.
func (c *Collection[T]) State() State[T] {
	return c.core.read()
}

// Find returns the cached record with the given id.
func (c *Collection[T]) Find(id string) (T, bool) {
	for _, r := range c.core.read().Records {
		if r.RecordID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// OnChange registers fn to be called with every new state. Listeners run on
// the goroutine that produced the change and must not call SetQuery, Retry or
// Close synchronously.
func (c *Collection[T]) OnChange(fn func(State[T])) (cancel func()) {
	return c.core.onChange(fn)
}

// Retry reopens the subscription of the current query, keeping the cached
// records visible while loading.
func (c *Collection[T]) Retry() {
	c.core.reopen(func(s *State[T]) {
		s.Loading = true
		s.Err = nil
	})
}

// Close cancels the subscription. The mirror ignores further pushes.
func (c *Collection[T]) Close() {
	c.core.close()
}

func (c *Collection[T]) push(gen uint64, key string, docs []docstore.Document) {
	records := make([]T, 0, len(docs))
	for _, doc := range docs {
		r, err := c.decode(doc)
		if err != nil {
			c.fail(gen, key, fmt.Errorf("decode document %s: %w", doc.ID, err))
			return
		}
		records = append(records, r)
	}
	c.core.apply(gen, func(s *State[T]) {
		*s = State[T]{Records: records}
	})
}

func (c *Collection[T]) fail(gen uint64, key string, err error) {
	serr := &domain.SubscriptionError{Target: key, Err: err}
	c.core.apply(gen, func(s *State[T]) {
		s.Loading = false
		s.Err = serr
	})
}
