// Package fiberlog plugs the observability middleware into gofiber/fiber.
//
// fiber recycles *fiber.Ctx values and their buffers once a handler
// returns, so everything captured here is copied out of the ctx.
package fiberlog

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/tuncerburak97/gozlem/internal/model"
)

type request struct {
	c *fiber.Ctx
}

func (r *request) Method() string {
	return utils.CopyString(r.c.Method())
}

func (r *request) Path() string {
	return utils.CopyString(r.c.Path())
}

func (r *request) Headers() []model.Field {
	var fields []model.Field
	r.c.Request().Header.VisitAll(func(key, value []byte) {
		fields = append(fields, model.Field{Key: string(key), Value: string(value)})
	})
	return fields
}

// PathParams is only populated when the middleware is mounted on the route
// itself; app.Use stages run before a route is matched.
func (r *request) PathParams() []model.Field {
	route := r.c.Route()
	if route == nil {
		return nil
	}
	fields := make([]model.Field, 0, len(route.Params))
	for _, name := range route.Params {
		fields = append(fields, model.Field{Key: name, Value: utils.CopyString(r.c.Params(name))})
	}
	return fields
}

func (r *request) QueryParams() []model.Field {
	var fields []model.Field
	r.c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		fields = append(fields, model.Field{Key: string(key), Value: string(value)})
	})
	return fields
}

// Body returns the raw body. fasthttp buffers it completely, so it is still
// available after the handler read it.
func (r *request) Body() []byte {
	return append([]byte{}, r.c.Request().Body()...)
}
