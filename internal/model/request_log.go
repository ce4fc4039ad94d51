package model

import "time"

// Record statuses
const (
	StatusStart   = "start"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Flattened field names shared by every record. Prefixed keys are built as
// prefix + name, so a header literally named "a.b" lives in the same
// namespace as the rest of the headers.
const (
	FieldPath           = "request_url.path"
	FieldMethod         = "request_method"
	FieldRequestID      = "request_id"
	FieldStatus         = "request_status"
	FieldProcessingTime = "request_processing_time"
	FieldStatusCode     = "request_status_code"
	FieldRequestData    = "request.data"
	FieldErrorClass     = "error.class"
	FieldErrorMsg       = "error.msg"
	FieldErrorTraceback = "error.traceback"

	PrefixPathParam  = "request_path."
	PrefixQueryParam = "request_args."
	PrefixHeader     = "request_headers."
)

type Level int

const (
	LevelInfo Level = iota
	LevelCritical
)

func (l Level) String() string {
	if l == LevelCritical {
		return "critical"
	}
	return "info"
}

// Field is a single key/value pair. Value is a string, []string, int,
// float64 or []byte.
type Field struct {
	Key   string
	Value interface{}
}

// Record is one emitted log entry. Fields keep insertion order.
type Record struct {
	Fields []Field
}

// Get returns the value stored under key.
func (r Record) Get(key string) (interface{}, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Status returns the request_status value of the record.
func (r Record) Status() string {
	v, _ := r.Get(FieldStatus)
	s, _ := v.(string)
	return s
}

// Map flattens the record into a map, mostly for assertions and sinks that
// do not care about order.
func (r Record) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Key] = f.Value
	}
	return m
}

// RequestContext holds everything captured about one inbound request. It
// is created by the middleware invocation handling the request and is never
// shared with another request.
type RequestContext struct {
	Path            string
	Method          string
	CorrelationID   string
	PathParameters  []Field
	QueryParameters []Field
	Headers         []Field
	StartedAt       time.Time
}
