package quote

import (
	"context"
	"sync"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
)

var _ documentStore = &documentStoreMock{}

type documentStoreMock struct {
	GetFunc          func(ctx context.Context, ref docstore.Ref) (*docstore.Document, error)
	CreateFunc       func(ctx context.Context, collection string, fields map[string]any) (string, error)
	UpdateFieldsFunc func(ctx context.Context, ref docstore.Ref, fields map[string]any) error
	DeleteFunc       func(ctx context.Context, ref docstore.Ref) error
	BatchFunc        func(ctx context.Context, ops []docstore.Op) error

	calls struct {
		Get []struct {
			Ref docstore.Ref
		}
		Create []struct {
			Collection string
			Fields     map[string]any
		}
		UpdateFields []struct {
			Ref    docstore.Ref
			Fields map[string]any
		}
		Delete []struct {
			Ref docstore.Ref
		}
		Batch []struct {
			Ops []docstore.Op
		}
	}
	lockGet          sync.RWMutex
	lockCreate       sync.RWMutex
	lockUpdateFields sync.RWMutex
	lockDelete       sync.RWMutex
	lockBatch        sync.RWMutex
}

func (mock *documentStoreMock) Get(ctx context.Context, ref docstore.Ref) (*docstore.Document, error) {
	if mock.GetFunc == nil {
		panic("documentStoreMock.GetFunc: method is nil but documentStore.Get was just called")
	}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, struct{ Ref docstore.Ref }{Ref: ref})
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, ref)
}

func (mock *documentStoreMock) GetCalls() []struct{ Ref docstore.Ref } {
	mock.lockGet.RLock()
	calls := mock.calls.Get
	mock.lockGet.RUnlock()
	return calls
}

func (mock *documentStoreMock) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if mock.CreateFunc == nil {
		panic("documentStoreMock.CreateFunc: method is nil but documentStore.Create was just called")
	}
	callInfo := struct {
		Collection string
		Fields     map[string]any
	}{Collection: collection, Fields: fields}
	mock.lockCreate.Lock()
	mock.calls.Create = append(mock.calls.Create, callInfo)
	mock.lockCreate.Unlock()
	return mock.CreateFunc(ctx, collection, fields)
}

func (mock *documentStoreMock) CreateCalls() []struct {
	Collection string
	Fields     map[string]any
} {
	mock.lockCreate.RLock()
	calls := mock.calls.Create
	mock.lockCreate.RUnlock()
	return calls
}

func (mock *documentStoreMock) UpdateFields(ctx context.Context, ref docstore.Ref, fields map[string]any) error {
	if mock.UpdateFieldsFunc == nil {
		panic("documentStoreMock.UpdateFieldsFunc: method is nil but documentStore.UpdateFields was just called")
	}
	callInfo := struct {
		Ref    docstore.Ref
		Fields map[string]any
	}{Ref: ref, Fields: fields}
	mock.lockUpdateFields.Lock()
	mock.calls.UpdateFields = append(mock.calls.UpdateFields, callInfo)
	mock.lockUpdateFields.Unlock()
	return mock.UpdateFieldsFunc(ctx, ref, fields)
}

func (mock *documentStoreMock) UpdateFieldsCalls() []struct {
	Ref    docstore.Ref
	Fields map[string]any
} {
	mock.lockUpdateFields.RLock()
	calls := mock.calls.UpdateFields
	mock.lockUpdateFields.RUnlock()
	return calls
}

func (mock *documentStoreMock) Delete(ctx context.Context, ref docstore.Ref) error {
	if mock.DeleteFunc == nil {
		panic("documentStoreMock.DeleteFunc: method is nil but documentStore.Delete was just called")
	}
	mock.lockDelete.Lock()
	mock.calls.Delete = append(mock.calls.Delete, struct{ Ref docstore.Ref }{Ref: ref})
	mock.lockDelete.Unlock()
	return mock.DeleteFunc(ctx, ref)
}

func (mock *documentStoreMock) DeleteCalls() []struct{ Ref docstore.Ref } {
	mock.lockDelete.RLock()
	calls := mock.calls.Delete
	mock.lockDelete.RUnlock()
	return calls
}

func (mock *documentStoreMock) Batch(ctx context.Context, ops []docstore.Op) error {
	if mock.BatchFunc == nil {
		panic("documentStoreMock.BatchFunc: method is nil but documentStore.Batch was just called")
	}
	mock.lockBatch.Lock()
	mock.calls.Batch = append(mock.calls.Batch, struct{ Ops []docstore.Op }{Ops: ops})
	mock.lockBatch.Unlock()
	return mock.BatchFunc(ctx, ops)
}

func (mock *documentStoreMock) BatchCalls() []struct{ Ops []docstore.Op } {
	mock.lockBatch.RLock()
	calls := mock.calls.Batch
	mock.lockBatch.RUnlock()
	return calls
}

// totalCalls counts every store call, across all methods.
func (mock *documentStoreMock) totalCalls() int {
	return len(mock.GetCalls()) + len(mock.CreateCalls()) + len(mock.UpdateFieldsCalls()) +
		len(mock.DeleteCalls()) + len(mock.BatchCalls())
}
