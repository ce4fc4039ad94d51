package httplog

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tuncerburak97/gozlem/internal/correlation"
	"github.com/tuncerburak97/gozlem/internal/location"
	"github.com/tuncerburak97/gozlem/internal/observability"
)

// Middleware logs every request served by next. net/http handlers only fail
// by panicking; the panic is re-raised once the error record is out.
func Middleware(m *observability.Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.Skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			body := m.RecordBody(r.Body)
			r.Body = body
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			_, _ = m.Observe(r.Context(), &request{r: r, body: body}, func(ctx context.Context) (int, error) {
				next.ServeHTTP(ww, r.WithContext(ctx))
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				return status, nil
			})
		})
	}
}

// StackOptions selects the stages of the default stack.
type StackOptions struct {
	CORS     bool
	Compress bool
	// CompressTypes restricts compression to these content types. Empty
	// means chi's defaults.
	CompressTypes []string
	ReverseProxy  bool
}

// Stack returns the default middlewares in mounting order: panic recovery,
// forwarded header handling, request logging, then CORS and compression.
func Stack(m *observability.Middleware, opts StackOptions) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{middleware.Recoverer}
	if opts.ReverseProxy {
		stack = append(stack, middleware.RealIP, location.ForwardedScheme)
	}
	stack = append(stack, Middleware(m))
	if opts.CORS {
		stack = append(stack, cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "HEAD", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}
	if opts.Compress {
		stack = append(stack, middleware.Compress(5, opts.CompressTypes...))
	}
	return stack
}

// RequestID returns the correlation id of the observed request.
func RequestID(r *http.Request) string {
	return correlation.FromContext(r.Context())
}

// Location answers 201 Created with an empty text body and a Location
// header pointing at path.
func Location(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Location", location.URL(
		location.Scheme(r),
		r.Host,
		r.Header.Get(location.OriginalRequestURIHeader),
		path,
	))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
}
