package mirror

import (
	"fmt"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

// DocumentSource opens single-document subscriptions.
type DocumentSource interface {
	SubscribeDocument(ref docstore.Ref, onSnapshot func(*docstore.Document), onError func(error)) docstore.Unsubscribe
}

// DocState is the observable state of a document mirror. Record is nil when
// the document does not exist.
type DocState[T any] struct {
	Record  *T
	Loading bool
	Err     error
}

// Document mirrors one document at a time.
type Document[T any] struct {
	src    DocumentSource
	decode Decoder[T]
	core   *live[DocState[T]]
}

// NewDocument creates a mirror without a target.
func NewDocument[T any](src DocumentSource, decode Decoder[T]) *Document[T] {
	return &Document[T]{
		src:    src,
		decode: decode,
		core:   newLive(DocState[T]{}),
	}
}

// SetRef switches the mirror to ref; nil drops the subscription.
func (d *Document[T]) SetRef(ref *docstore.Ref) {
	if ref == nil {
		d.core.switchTarget("", nil, func(s *DocState[T]) { *s = DocState[T]{} })
		return
	}

	r := *ref
	key := r.Path()
	d.core.switchTarget(key, func(gen uint64) docstore.Unsubscribe {
		return d.src.SubscribeDocument(r,
			func(doc *docstore.Document) { d.push(gen, key, doc) },
			func(err error) { d.fail(gen, key, err) },
		)
	}, func(s *DocState[T]) { *s = DocState[T]{Loading: true} })
}

// State returns the current state.
func (d *Document[T]) State() DocState[T] {
	return d.core.read()
}

// OnChange registers fn to be called with every new state.
func (d *Document[T]) OnChange(fn func(DocState[T])) (cancel func()) {
	return d.core.onChange(fn)
}

// Retry reopens the subscription of the current document.
func (d *Document[T]) Retry() {
	d.core.reopen(func(s *DocState[T]) {
		s.Loading = true
		s.Err = nil
	})
}

// Close cancels the subscription.
func (d *Document[T]) Close() {
	d.core.close()
}

func (d *Document[T]) push(gen uint64, key string, doc *docstore.Document) {
	var rec *T
	if doc != nil {
		v, err := d.decode(*doc)
		if err != nil {
			d.fail(gen, key, fmt.Errorf("decode document %s: %w", doc.ID, err))
			return
		}
		rec = &v
	}
	d.core.apply(gen, func(s *DocState[T]) {
		*s = DocState[T]{Record: rec}
	})
}

func (d *Document[T]) fail(gen uint64, key string, err error) {
	serr := &domain.SubscriptionError{Target: key, Err: err}
	d.core.apply(gen, func(s *DocState[T]) {
		s.Loading = false
		s.Err = serr
	})
}
