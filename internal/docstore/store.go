// Package docstore defines the remote document store contract consumed by the
// mirrors and repositories, plus the push fan-out shared by every backend.
//
// A store is addressed by collection/document paths. Subscriptions receive the
// complete current result set on open and after every change (snapshots, not
// deltas). Writes are single-document or atomically batched.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is reported to subscriptions opened on a closed store.
var ErrClosed = errors.New("docstore: closed")

// Ref addresses a single document.
type Ref struct {
	Collection string
	ID         string
}

// Path returns the logical document path "collection/id".
func (r Ref) Path() string {
	return r.Collection + "/" + r.ID
}

// ParsePath splits a "collection/id" path into a Ref.
func ParsePath(path string) (Ref, bool) {
	collection, id, ok := strings.Cut(path, "/")
	if !ok || collection == "" || id == "" || strings.Contains(id, "/") {
		return Ref{}, false
	}
	return Ref{Collection: collection, ID: id}, true
}

// Document is one stored document as delivered by the store.
type Document struct {
	ID         string
	Data       json.RawMessage
	CreateTime time.Time
	UpdateTime time.Time
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// Unsubscribe cancels a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// Store is the capability set required from the remote document store.
type Store interface {
	// Get returns the document or an error wrapping domain.ErrNotFound.
	Get(ctx context.Context, ref Ref) (*Document, error)
	// Create inserts a new document with a store-assigned id.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Set replaces the document, or merges fields into it when merge is true.
	Set(ctx context.Context, ref Ref, fields map[string]any, merge bool) error
	// UpdateFields changes only the given top-level fields of an existing document.
	UpdateFields(ctx context.Context, ref Ref, fields map[string]any) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, ref Ref) error
	// Batch applies all ops atomically or none of them.
	Batch(ctx context.Context, ops []Op) error

	SubscribeCollection(q Query, onSnapshot func([]Document), onError func(error)) Unsubscribe
	SubscribeDocument(ref Ref, onSnapshot func(*Document), onError func(error)) Unsubscribe
}

// OpKind is the kind of a batched write.
type OpKind int

const (
	OpCreate OpKind = iota + 1
	OpSet
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpSet:
		return "set"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Op is one write inside a Batch. Create ops carry a caller-generated id
// (see NewID).
type Op struct {
	Kind   OpKind
	Ref    Ref
	Fields map[string]any
	Merge  bool
}

// CreateOp builds a batched create.
func CreateOp(ref Ref, fields map[string]any) Op {
	return Op{Kind: OpCreate, Ref: ref, Fields: fields}
}

// SetOp builds a batched set.
func SetOp(ref Ref, fields map[string]any, merge bool) Op {
	return Op{Kind: OpSet, Ref: ref, Fields: fields, Merge: merge}
}

// UpdateOp builds a batched field update.
func UpdateOp(ref Ref, fields map[string]any) Op {
	return Op{Kind: OpUpdate, Ref: ref, Fields: fields}
}

// DeleteOp builds a batched delete.
func DeleteOp(ref Ref) Op {
	return Op{Kind: OpDelete, Ref: ref}
}

// NewID returns a fresh document id.
func NewID() string {
	return uuid.NewString()
}
