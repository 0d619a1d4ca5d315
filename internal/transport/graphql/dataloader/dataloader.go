// Package dataloader provides per-request DataLoaders that batch the quote
// lookups behind Sale.quote into one read per request tick. Loaders read
// through the quote service, which serves mirrored quotes without touching
// the store.
package dataloader

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

const (
	maxBatch = 100
	wait     = 2 * time.Millisecond
)

type quoteReader interface {
	FindMany(ctx context.Context, ids []uuid.UUID) ([]domain.Quote, error)
}

// Sources holds what the loaders read from.
type Sources struct {
	Quotes quoteReader
}

// Loaders holds the per-request DataLoader instances.
type Loaders struct {
	QuoteByID *dataloader.Loader[uuid.UUID, *domain.Quote]
}

// NewLoaders creates a new set of DataLoaders backed by src.
// Must be called per-request (loaders cache results within a single request).
func NewLoaders(src *Sources) *Loaders {
	return &Loaders{
		QuoteByID: newLoader(newQuoteBatchFn(src.Quotes)),
	}
}

func newLoader[V any](batchFn dataloader.BatchFunc[uuid.UUID, V]) *dataloader.Loader[uuid.UUID, V] {
	return dataloader.NewBatchedLoader(
		batchFn,
		dataloader.WithWait[uuid.UUID, V](wait),
		dataloader.WithBatchCapacity[uuid.UUID, V](maxBatch),
	)
}

type contextKey string

const loadersKey contextKey = "dataloaders"

// WithLoaders stores Loaders in the context.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, l)
}

// FromContext retrieves Loaders from the context.
// Panics if loaders are not present (indicates middleware misconfiguration).
func FromContext(ctx context.Context) *Loaders {
	l, ok := ctx.Value(loadersKey).(*Loaders)
	if !ok || l == nil {
		panic("dataloader: loaders not found in context, is middleware configured?")
	}
	return l
}
