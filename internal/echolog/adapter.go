// Package echolog plugs the observability middleware into labstack/echo.
package echolog

import (
	"github.com/labstack/echo/v4"
	"github.com/tuncerburak97/gozlem/internal/model"
	"github.com/tuncerburak97/gozlem/internal/observability"
)

type request struct {
	c    echo.Context
	body *observability.BodyRecorder
}

func (r *request) Method() string {
	return r.c.Request().Method
}

func (r *request) Path() string {
	return r.c.Request().URL.Path
}

func (r *request) Headers() []model.Field {
	req := r.c.Request()
	fields := observability.HeaderPairs(req.Header)
	if req.Host != "" && req.Header.Get("Host") == "" {
		fields = append([]model.Field{{Key: "host", Value: req.Host}}, fields...)
	}
	return fields
}

// PathParams is filled for middlewares registered with e.Use, since echo
// routes before running them. Pre middlewares see none.
func (r *request) PathParams() []model.Field {
	names, values := r.c.ParamNames(), r.c.ParamValues()
	var fields []model.Field
	for i, name := range names {
		if name == "*" || i >= len(values) {
			continue
		}
		fields = append(fields, model.Field{Key: name, Value: values[i]})
	}
	return fields
}

func (r *request) QueryParams() []model.Field {
	return observability.ValuesPairs(r.c.QueryParams())
}

func (r *request) Body() []byte {
	return r.body.Bytes()
}
