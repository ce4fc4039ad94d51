package echolog

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/tuncerburak97/gozlem/internal/correlation"
	"github.com/tuncerburak97/gozlem/internal/location"
	"github.com/tuncerburak97/gozlem/internal/observability"
)

// ContextRequestID is the c.Get key holding the correlation id.
const ContextRequestID = "request_id"

// Middleware logs every request going through the rest of the chain. Errors
// are returned unchanged so echo's HTTPErrorHandler still renders them.
func Middleware(m *observability.Middleware) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if m.Skip(req.URL.Path) {
				return next(c)
			}

			body := m.RecordBody(req.Body)
			req.Body = body

			_, err := m.Observe(req.Context(), &request{c: c, body: body}, func(ctx context.Context) (int, error) {
				c.SetRequest(c.Request().WithContext(ctx))
				c.Set(ContextRequestID, correlation.FromContext(ctx))
				if err := next(c); err != nil {
					return 0, err
				}
				return c.Response().Status, nil
			})
			return err
		}
	}
}

// StackOptions selects the stages of the default stack.
type StackOptions struct {
	CORS     bool
	Compress bool
	// ReverseProxy trusts X-Forwarded-* headers. The client address part is
	// applied through Configure.
	ReverseProxy bool
}

// Stack returns the default middlewares in mounting order: panic recovery,
// forwarded scheme handling, request logging, then CORS and compression.
func Stack(m *observability.Middleware, opts StackOptions) []echo.MiddlewareFunc {
	stack := []echo.MiddlewareFunc{echomw.Recover()}
	if opts.ReverseProxy {
		stack = append(stack, echo.WrapMiddleware(location.ForwardedScheme))
	}
	stack = append(stack, Middleware(m))
	if opts.CORS {
		stack = append(stack, echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodHead, http.MethodPut,
				http.MethodDelete, http.MethodPatch, http.MethodOptions,
			},
		}))
	}
	if opts.Compress {
		stack = append(stack, echomw.Gzip())
	}
	return stack
}

// Use configures e and mounts the default stack.
func Use(e *echo.Echo, m *observability.Middleware, opts StackOptions) {
	Configure(e, opts)
	e.Use(Stack(m, opts)...)
}

// Configure sets how e resolves the client address. Behind a reverse proxy
// it comes from X-Forwarded-For; otherwise from the connection only.
func Configure(e *echo.Echo, opts StackOptions) {
	if opts.ReverseProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
		return
	}
	e.IPExtractor = echo.ExtractIPDirect()
}

// Location answers 201 Created with an empty text body and a Location
// header pointing at path.
func Location(c echo.Context, path string) error {
	req := c.Request()
	c.Response().Header().Set(echo.HeaderLocation, location.URL(
		location.Scheme(req),
		req.Host,
		req.Header.Get(location.OriginalRequestURIHeader),
		path,
	))
	return c.Blob(http.StatusCreated, echo.MIMETextPlainCharsetUTF8, nil)
}
