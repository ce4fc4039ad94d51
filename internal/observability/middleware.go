package observability

import (
	"context"
	"io"

	"github.com/tuncerburak97/gozlem/internal/correlation"
)

// Options configures a Middleware.
type Options struct {
	// SkipPaths lists paths that are never logged. Matching is exact.
	SkipPaths []string
	// RequestIDHeader carries the correlation id of the previous hop.
	// Defaults to X-Request-Id.
	RequestIDHeader string
	// IDGenerator overrides the random token generator.
	IDGenerator correlation.Generator
	Metrics     MetricsRecorder
	// BodyLimit caps the request body bytes kept for the error record.
	// Zero means DefaultBodyLimit, a negative value keeps no body.
	BodyLimit int64
}

// Middleware is the framework independent part of request observation. It
// holds configuration only and is safe for concurrent use.
type Middleware struct {
	sink            Sink
	metrics         MetricsRecorder
	skip            map[string]struct{}
	requestIDHeader string
	generate        correlation.Generator
	bodyLimit       int64
}

// New returns a Middleware writing its records to sink.
func New(sink Sink, opts Options) *Middleware {
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}
	header := opts.RequestIDHeader
	if header == "" {
		header = correlation.DefaultHeader
	}
	gen := opts.IDGenerator
	if gen == nil {
		gen = correlation.NewToken
	}

	limit := opts.BodyLimit
	switch {
	case limit == 0:
		limit = DefaultBodyLimit
	case limit < 0:
		limit = 0
	}

	return &Middleware{
		sink:            sink,
		metrics:         opts.Metrics,
		skip:            skip,
		requestIDHeader: header,
		generate:        gen,
		bodyLimit:       limit,
	}
}

// Skip reports whether path is exempted from logging.
func (m *Middleware) Skip(path string) bool {
	_, ok := m.skip[path]
	return ok
}

// RecordBody wraps a request body for adapters whose framework streams it,
// keeping at most the configured body limit.
func (m *Middleware) RecordBody(rc io.ReadCloser) *BodyRecorder {
	return NewBodyRecorder(rc, m.bodyLimit)
}

// Begin captures the request, emits its start record and returns the
// statistics that will emit the final record. The returned context carries
// the correlation id.
func (m *Middleware) Begin(ctx context.Context, a HostAdapter) (*Statistics, context.Context) {
	s := newStatistics(m, a)
	s.start()
	return s, correlation.WithRequestID(ctx, s.RequestID())
}

// Observe runs next between the start and final records. next reports the
// response status code, or fails by returning an error or panicking. Errors
// are returned unchanged and panics are re-raised with the same value.
// Requests on a skipped path go straight to next.
func (m *Middleware) Observe(ctx context.Context, a HostAdapter, next func(context.Context) (int, error)) (int, error) {
	if m.Skip(a.Path()) {
		return next(ctx)
	}

	s, ctx := m.Begin(ctx, a)
	return s.run(ctx, next)
}

func (s *Statistics) run(ctx context.Context, next func(context.Context) (int, error)) (status int, err error) {
	returned := false
	defer func() {
		if returned {
			return
		}
		r := recover()
		if r == nil {
			s.Failure(errGoexit)
			return
		}
		s.Failure(r)
		panic(r)
	}()

	status, err = next(ctx)
	returned = true

	if err != nil {
		s.Failure(err)
		return status, err
	}
	s.Success(status)
	return status, nil
}
