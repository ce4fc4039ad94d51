package fiberlog

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tuncerburak97/gozlem/internal/correlation"
	"github.com/tuncerburak97/gozlem/internal/location"
	"github.com/tuncerburak97/gozlem/internal/observability"
)

// LocalsRequestID is the c.Locals key holding the correlation id.
const LocalsRequestID = "request_id"

// Middleware logs every request going through the rest of the chain. Errors
// returned by the chain are returned unchanged to fiber's error handler and
// panics are re-raised for the recover stage.
func Middleware(m *observability.Middleware) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.Skip(c.Path()) {
			return c.Next()
		}

		_, err := m.Observe(c.UserContext(), &request{c: c}, func(ctx context.Context) (int, error) {
			c.SetUserContext(ctx)
			c.Locals(LocalsRequestID, correlation.FromContext(ctx))
			if err := c.Next(); err != nil {
				return 0, err
			}
			return c.Response().StatusCode(), nil
		})
		return err
	}
}

// StackOptions selects the stages of the default stack.
type StackOptions struct {
	CORS     bool
	Compress bool
	// ReverseProxy trusts X-Forwarded-* headers. It is applied through
	// Configure since fiber resolves them at the app level.
	ReverseProxy bool
}

// Stack returns the default handlers in mounting order: panic recovery,
// request logging, then CORS and compression when enabled.
func Stack(m *observability.Middleware, opts StackOptions) []fiber.Handler {
	handlers := []fiber.Handler{
		recover.New(),
		Middleware(m),
	}
	if opts.CORS {
		handlers = append(handlers, cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		}))
	}
	if opts.Compress {
		handlers = append(handlers, compress.New())
	}
	return handlers
}

// Use mounts the default stack on app.
func Use(app *fiber.App, m *observability.Middleware, opts StackOptions) {
	for _, h := range Stack(m, opts) {
		app.Use(h)
	}
}

// Configure adjusts cfg for opts.ReverseProxy. With it, the client address
// comes from X-Forwarded-For; without it, forwarded headers are ignored.
func Configure(cfg fiber.Config, opts StackOptions) fiber.Config {
	if opts.ReverseProxy {
		cfg.ProxyHeader = fiber.HeaderXForwardedFor
		cfg.EnableIPValidation = true
		return cfg
	}
	cfg.EnableTrustedProxyCheck = true
	cfg.TrustedProxies = nil
	return cfg
}

// Location answers 201 Created with an empty text body and a Location
// header pointing at path.
func Location(c *fiber.Ctx, path string) error {
	c.Set(fiber.HeaderLocation, location.URL(
		c.Protocol(),
		c.Hostname(),
		c.Get(location.OriginalRequestURIHeader),
		path,
	))
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusCreated).Send(nil)
}
