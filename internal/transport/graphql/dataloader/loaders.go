package dataloader

import (
	"context"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

// newQuoteBatchFn resolves a batch of quote ids. Unknown ids load as nil.
func newQuoteBatchFn(src quoteReader) dataloader.BatchFunc[uuid.UUID, *domain.Quote] {
	return func(ctx context.Context, keys []uuid.UUID) []*dataloader.Result[*domain.Quote] {
		quotes, err := src.FindMany(ctx, keys)
		if err != nil {
			return errorResults[*domain.Quote](len(keys), err)
		}

		byID := make(map[uuid.UUID]*domain.Quote, len(quotes))
		for i := range quotes {
			byID[quotes[i].ID] = &quotes[i]
		}

		return mapResults(keys, byID, func() *domain.Quote { return nil })
	}
}

// errorResults returns a slice of error results for all keys.
func errorResults[V any](n int, err error) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], n)
	for i := range results {
		results[i] = &dataloader.Result[V]{Error: err}
	}
	return results
}

// mapResults maps grouped results back to key order, using defaultFn for missing keys.
func mapResults[V any](keys []uuid.UUID, grouped map[uuid.UUID]V, defaultFn func() V) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], len(keys))
	for i, key := range keys {
		if v, ok := grouped[key]; ok {
			results[i] = &dataloader.Result[V]{Data: v}
		} else {
			results[i] = &dataloader.Result[V]{Data: defaultFn()}
		}
	}
	return results
}
