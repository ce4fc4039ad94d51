// Package httplog plugs the observability middleware into net/http, with
// go-chi for routing and the default stack.
package httplog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tuncerburak97/gozlem/internal/model"
	"github.com/tuncerburak97/gozlem/internal/observability"
)

type request struct {
	r    *http.Request
	body *observability.BodyRecorder
}

func (r *request) Method() string {
	return r.r.Method
}

func (r *request) Path() string {
	return r.r.URL.Path
}

// Headers includes Host, which net/http moves out of the header map.
func (r *request) Headers() []model.Field {
	fields := observability.HeaderPairs(r.r.Header)
	if r.r.Host != "" && r.r.Header.Get("Host") == "" {
		fields = append([]model.Field{{Key: "host", Value: r.r.Host}}, fields...)
	}
	return fields
}

// PathParams reads the chi route context. It is only filled once chi has
// matched a route, so the middleware must be mounted with r.With or inside
// a route group to see them.
func (r *request) PathParams() []model.Field {
	rctx := chi.RouteContext(r.r.Context())
	if rctx == nil {
		return nil
	}
	var fields []model.Field
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		fields = append(fields, model.Field{Key: key, Value: rctx.URLParams.Values[i]})
	}
	return fields
}

func (r *request) QueryParams() []model.Field {
	return observability.ValuesPairs(r.r.URL.Query())
}

func (r *request) Body() []byte {
	return r.body.Bytes()
}
