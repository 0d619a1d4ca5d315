package ctxutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

type ctxKey string

const (
	principalKey ctxKey = "principal"
	requestIDKey ctxKey = "request_id"
)

// WithPrincipal stores the acting principal in the context.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromCtx extracts the acting principal from the context.
// Returns false if the value is missing, has a nil id, or has the wrong type.
func PrincipalFromCtx(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	if !ok || p.ID == uuid.Nil {
		return domain.Principal{}, false
	}
	return p, true
}

// PrincipalIDFromCtx returns the acting principal's id, or uuid.Nil if absent.
func PrincipalIDFromCtx(ctx context.Context) uuid.UUID {
	p, _ := PrincipalFromCtx(ctx)
	return p.ID
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
