// Package observability implements the request logging middleware shared by
// every host framework adapter.
//
// Each observed request produces a "start" record followed by exactly one
// "success" or "error" record. Records are flat: keys are the dotted names in
// package model, header names are lower-cased, and repeated query keys turn
// into a []string while single ones stay a plain string.
package observability

import (
	"time"

	"github.com/tuncerburak97/gozlem/internal/model"
)

// HostAdapter exposes one inbound request of a host framework. Every method
// returns raw, unmerged data: repeated headers or query keys appear once per
// occurrence, in arrival order when the framework preserves it. Values must
// be copies that stay valid after the handler returns.
type HostAdapter interface {
	Method() string
	Path() string
	Headers() []model.Field
	PathParams() []model.Field
	QueryParams() []model.Field
	// Body is only called on the failure path and may return what is left
	// of a body the handler already consumed.
	Body() []byte
}

// Sink receives the records. It is called concurrently from every in-flight
// request and must be safe for that.
type Sink interface {
	Log(level model.Level, record model.Record)
}

// MetricsRecorder is implemented by *metrics.MetricsCollector.
type MetricsRecorder interface {
	IncActiveRequests()
	DecActiveRequests()
	ObserveRequest(method string, status int, duration time.Duration)
	LogError(method, class string)
}
