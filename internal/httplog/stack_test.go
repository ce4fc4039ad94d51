package httplog

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuncerburak97/gozlem/internal/observability"
	"github.com/tuncerburak97/gozlem/internal/testutil"
)

func newStackRouter(t *testing.T, opts StackOptions) (http.Handler, *testutil.RecordingSink) {
	t.Helper()
	sink := &testutil.RecordingSink{}
	m := observability.New(sink, observability.Options{SkipPaths: []string{"/health"}})

	r := chi.NewRouter()
	r.Use(Stack(m, opts)...)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/standard_responses", func(w http.ResponseWriter, r *http.Request) {
		Location(w, r, "/standard_responses?id=42")
	})
	r.Get("/ip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.RemoteAddr))
	})
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	r.Get("/large", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	})
	return r, sink
}

func TestStackLength(t *testing.T) {
	m := observability.New(&testutil.RecordingSink{}, observability.Options{})

	assert.Len(t, Stack(m, StackOptions{}), 2)
	assert.Len(t, Stack(m, StackOptions{ReverseProxy: true}), 4)
	assert.Len(t, Stack(m, StackOptions{CORS: true, Compress: true, ReverseProxy: true}), 6)
}

func TestStackRecoversPanics(t *testing.T) {
	h, sink := newStackRouter(t, StackOptions{})

	rec := serve(h, httptest.NewRequest("GET", "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	records := sink.Maps()
	require.Len(t, records, 2)
	assert.Equal(t, "boom", records[1]["error.msg"])
}

func TestStackCORS(t *testing.T) {
	h, sink := newStackRouter(t, StackOptions{CORS: true})

	req := httptest.NewRequest("POST", "/standard_responses", nil)
	req.Header.Set("Origin", "http://other.example")
	rec := serve(h, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Len(t, sink.Entries(), 2)
}

func TestStackCompress(t *testing.T) {
	h, _ := newStackRouter(t, StackOptions{Compress: true, CompressTypes: []string{"text/plain"}})

	req := httptest.NewRequest("GET", "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := serve(h, req)

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Less(t, len(body), 2048)
}

func TestStackHealthIsNotLogged(t *testing.T) {
	h, sink := newStackRouter(t, StackOptions{CORS: true})

	rec := serve(h, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sink.Entries())
}

func TestLocationWithoutReverseProxy(t *testing.T) {
	h, _ := newStackRouter(t, StackOptions{})

	req := httptest.NewRequest("POST", "/standard_responses", nil)
	req.Host = "testserver"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := serve(h, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "http://testserver/standard_responses?id=42", rec.Header().Get("Location"))
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Body.String())
}

func TestLocationWithReverseProxy(t *testing.T) {
	h, _ := newStackRouter(t, StackOptions{ReverseProxy: true})

	req := httptest.NewRequest("POST", "/standard_responses", nil)
	req.Host = "localhost"
	req.Header.Set("X-Original-Request-Uri", "/reverse/standard_responses")
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := serve(h, req)

	assert.Equal(t, "https://localhost/reverse/standard_responses?id=42", rec.Header().Get("Location"))
}

func TestReverseProxyClientAddress(t *testing.T) {
	h, _ := newStackRouter(t, StackOptions{ReverseProxy: true})

	req := httptest.NewRequest("GET", "/ip", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := serve(h, req)
	assert.Equal(t, "203.0.113.7", rec.Body.String())
}
