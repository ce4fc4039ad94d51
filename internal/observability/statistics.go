package observability

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/tuncerburak97/gozlem/internal/correlation"
	"github.com/tuncerburak97/gozlem/internal/model"
)

// errGoexit stands in for the fault when the handler goroutine exits
// through runtime.Goexit instead of returning or panicking.
var errGoexit = errors.New("handler goroutine exited without returning")

// Statistics tracks one observed request between its start record and its
// final record. It belongs to the invocation that created it.
type Statistics struct {
	sink      Sink
	metrics   MetricsRecorder
	adapter   HostAdapter
	ctx       model.RequestContext
	base      []model.Field
	bodyLimit int64
	done      bool
}

func newStatistics(m *Middleware, a HostAdapter) *Statistics {
	headers := GroupHeaders(capture(a.Headers))
	rc := model.RequestContext{
		Path:            captureString(a.Path),
		Method:          captureString(a.Method),
		PathParameters:  capture(a.PathParams),
		QueryParameters: GroupQuery(capture(a.QueryParams)),
		Headers:         headers,
	}
	rc.CorrelationID = correlation.Allocate(lookup(headers, m.requestIDHeader), m.generate)

	base := make([]model.Field, 0, 3+len(rc.PathParameters)+len(rc.QueryParameters)+len(rc.Headers))
	base = append(base,
		model.Field{Key: model.FieldPath, Value: rc.Path},
		model.Field{Key: model.FieldMethod, Value: rc.Method},
		model.Field{Key: model.FieldRequestID, Value: rc.CorrelationID},
	)
	base = append(base, prefixed(model.PrefixPathParam, rc.PathParameters)...)
	base = append(base, prefixed(model.PrefixQueryParam, rc.QueryParameters)...)
	base = append(base, prefixed(model.PrefixHeader, rc.Headers)...)

	return &Statistics{
		sink:      m.sink,
		metrics:   m.metrics,
		adapter:   a,
		ctx:       rc,
		base:      base,
		bodyLimit: m.bodyLimit,
	}
}

// RequestID returns the correlation id allocated for the request.
func (s *Statistics) RequestID() string {
	return s.ctx.CorrelationID
}

// Context returns a copy of the captured request context.
func (s *Statistics) Context() model.RequestContext {
	return s.ctx
}

func (s *Statistics) start() {
	s.emit(model.LevelInfo, model.Field{Key: model.FieldStatus, Value: model.StatusStart})
	if s.metrics != nil {
		s.metrics.IncActiveRequests()
	}
	s.ctx.StartedAt = time.Now()
}

// Success emits the success record. Only the first of Success or Failure
// has any effect.
func (s *Statistics) Success(status int) {
	if s.done {
		return
	}
	s.done = true
	elapsed := time.Since(s.ctx.StartedAt)

	s.emit(model.LevelInfo,
		model.Field{Key: model.FieldProcessingTime, Value: elapsed.Seconds()},
		model.Field{Key: model.FieldStatus, Value: model.StatusSuccess},
		model.Field{Key: model.FieldStatusCode, Value: status},
	)
	if s.metrics != nil {
		s.metrics.DecActiveRequests()
		s.metrics.ObserveRequest(s.ctx.Method, status, elapsed)
	}
}

// Failure emits the error record for fault, which is either a returned
// error or a recovered panic value. For a returned error, error.traceback
// is the stack where the failure was observed, not where the error was
// created.
func (s *Statistics) Failure(fault interface{}) {
	if s.done {
		return
	}
	s.done = true
	class := fmt.Sprintf("%T", fault)

	s.emit(model.LevelCritical,
		model.Field{Key: model.FieldRequestData, Value: captureBody(s.adapter.Body, s.bodyLimit)},
		model.Field{Key: model.FieldErrorClass, Value: class},
		model.Field{Key: model.FieldErrorMsg, Value: faultMessage(fault)},
		model.Field{Key: model.FieldErrorTraceback, Value: string(debug.Stack())},
		model.Field{Key: model.FieldStatus, Value: model.StatusError},
	)
	if s.metrics != nil {
		s.metrics.DecActiveRequests()
		s.metrics.LogError(s.ctx.Method, class)
	}
}

func (s *Statistics) emit(level model.Level, extra ...model.Field) {
	fields := make([]model.Field, 0, len(s.base)+len(extra))
	fields = append(fields, s.base...)
	fields = append(fields, extra...)
	s.sink.Log(level, model.Record{Fields: fields})
}

func faultMessage(fault interface{}) string {
	if err, ok := fault.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(fault)
}

func lookup(headers []model.Field, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Key, name) {
			return h.Value.(string)
		}
	}
	return ""
}

// The capture helpers keep a misbehaving adapter from breaking the request:
// a panic while reading request data degrades to an empty value.

func capture(fn func() []model.Field) (fields []model.Field) {
	defer func() {
		if recover() != nil {
			fields = nil
		}
	}()
	return fn()
}

func captureString(fn func() string) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	return fn()
}

func captureBody(fn func() []byte, limit int64) (body []byte) {
	defer func() {
		if recover() != nil {
			body = []byte{}
		}
	}()
	body = fn()
	if body == nil {
		body = []byte{}
	}
	if int64(len(body)) > limit {
		body = body[:limit]
	}
	return body
}
