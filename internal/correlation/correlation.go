// Package correlation derives the per-request correlation id and carries it
// through the request context so application code can log with it.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// DefaultHeader carries the id of the previous hop.
const DefaultHeader = "X-Request-Id"

type contextKey struct{}

// Generator produces a fresh random token.
type Generator func() string

// NewToken returns a random UUID in canonical form.
func NewToken() string {
	return uuid.NewString()
}

// Allocate builds the id of the current request. A prior id is kept and the
// new token appended after a comma, so ids accumulate across hops. Call it
// once per request.
func Allocate(prior string, gen Generator) string {
	if gen == nil {
		gen = NewToken
	}
	if prior == "" {
		return gen()
	}
	return prior + "," + gen()
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the id stored in ctx, or "" if there is none.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
