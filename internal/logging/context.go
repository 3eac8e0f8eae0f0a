package logging

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// ContextWithRequestID stores the request identifier so that log lines
// written with the returned context carry it.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestIDFromContext returns the stored request identifier or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// NewRequestID returns a fresh random identifier.
func NewRequestID() string {
	return uuid.NewString()
}
