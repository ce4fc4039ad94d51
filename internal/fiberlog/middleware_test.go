package fiberlog

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuncerburak97/gozlem/internal/correlation"
	"github.com/tuncerburak97/gozlem/internal/observability"
	"github.com/tuncerburak97/gozlem/internal/testutil"
)

func newApp(t *testing.T, opts observability.Options) (*fiber.App, *testutil.RecordingSink) {
	t.Helper()
	sink := &testutil.RecordingSink{}
	if opts.IDGenerator == nil {
		opts.IDGenerator = testutil.FixedID("1-2-3-4-5")
	}
	if opts.SkipPaths == nil {
		opts.SkipPaths = []string{"/skipped"}
	}
	m := observability.New(sink, opts)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(Middleware(m))

	app.All("/logging", func(c *fiber.Ctx) error {
		c.Set("X-Handler", "yes")
		return c.Status(fiber.StatusAccepted).SendString("payload")
	})
	app.All("/logging_failure", func(c *fiber.Ctx) error {
		return errors.New("Error message")
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})
	app.Get("/skipped", func(c *fiber.Ctx) error {
		return c.SendString("skipped")
	})
	app.Get("/request_id", func(c *fiber.Ctx) error {
		return c.SendString(correlation.FromContext(c.UserContext()) + "|" + c.Locals(LocalsRequestID).(string))
	})
	app.Get("/items/:id", Middleware(m), func(c *fiber.Ctx) error {
		return c.SendString(c.Params("id"))
	})
	return app, sink
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestSuccessRecords(t *testing.T) {
	app, sink := newApp(t, observability.Options{})

	for _, method := range []string{"GET", "POST", "PUT", "DELETE"} {
		req := httptest.NewRequest(method, "/logging", nil)
		req.Header.Set("X-Custom", "value")
		resp, body := do(t, app, req)

		assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
		assert.Equal(t, "payload", body)
		assert.Equal(t, "yes", resp.Header.Get("X-Handler"))
		assert.Empty(t, resp.Header.Get(correlation.DefaultHeader))
	}

	records := sink.Maps()
	require.Len(t, records, 8)
	for i, method := range []string{"GET", "POST", "PUT", "DELETE"} {
		start, end := records[2*i], records[2*i+1]

		assert.Equal(t, "start", start["request_status"])
		assert.Equal(t, "/logging", start["request_url.path"])
		assert.Equal(t, method, start["request_method"])
		assert.Equal(t, "1-2-3-4-5", start["request_id"])
		assert.Equal(t, "example.com", start["request_headers.host"])
		assert.Equal(t, "value", start["request_headers.x-custom"])
		assert.NotContains(t, start, "request_processing_time")

		assert.Equal(t, "success", end["request_status"])
		assert.Equal(t, fiber.StatusAccepted, end["request_status_code"])
		assert.GreaterOrEqual(t, end["request_processing_time"].(float64), 0.0)
		assert.Equal(t, start["request_headers.x-custom"], end["request_headers.x-custom"])
	}
}

func TestReturnedErrorRecords(t *testing.T) {
	app, sink := newApp(t, observability.Options{})

	req := httptest.NewRequest("POST", "/logging_failure", strings.NewReader(`{"a":1}`))
	resp, body := do(t, app, req)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error message", body)

	records := sink.Maps()
	require.Len(t, records, 2)
	end := records[1]
	assert.Equal(t, "error", end["request_status"])
	assert.Equal(t, "*errors.errorString", end["error.class"])
	assert.Equal(t, "Error message", end["error.msg"])
	assert.Equal(t, []byte(`{"a":1}`), end["request.data"])
	assert.NotEmpty(t, end["error.traceback"])
	assert.NotContains(t, end, "request_status_code")
	assert.NotContains(t, end, "request_processing_time")
}

func TestRequestDataIsCapped(t *testing.T) {
	app, sink := newApp(t, observability.Options{BodyLimit: 4})

	req := httptest.NewRequest("POST", "/logging_failure", strings.NewReader("abcdefgh"))
	do(t, app, req)

	records := sink.Maps()
	require.Len(t, records, 2)
	assert.Equal(t, []byte("abcd"), records[1]["request.data"])
}

func TestPanicReachesRecover(t *testing.T) {
	app, sink := newApp(t, observability.Options{})

	resp, _ := do(t, app, httptest.NewRequest("GET", "/panic", nil))
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	records := sink.Maps()
	require.Len(t, records, 2)
	assert.Equal(t, "error", records[1]["request_status"])
	assert.Equal(t, "string", records[1]["error.class"])
	assert.Equal(t, "boom", records[1]["error.msg"])
	assert.Equal(t, []byte{}, records[1]["request.data"])
}

func TestSkippedPath(t *testing.T) {
	app, sink := newApp(t, observability.Options{})

	resp, body := do(t, app, httptest.NewRequest("GET", "/skipped", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "skipped", body)
	assert.Empty(t, sink.Entries())
}

func TestQueryParameters(t *testing.T) {
	app, sink := newApp(t, observability.Options{})

	do(t, app, httptest.NewRequest("GET", "/logging?param1=1", nil))
	do(t, app, httptest.NewRequest("GET", "/logging?param1=1&param2=x&param1=toto", nil))

	records := sink.Maps()
	require.Len(t, records, 4)
	assert.Equal(t, "1", records[0]["request_args.param1"])
	assert.Equal(t, []string{"1", "toto"}, records[2]["request_args.param1"])
	assert.Equal(t, "x", records[2]["request_args.param2"])
}

func TestPathParametersOnRouteMiddleware(t *testing.T) {
	app, sink := newApp(t, observability.Options{})

	_, body := do(t, app, httptest.NewRequest("GET", "/items/42", nil))
	assert.Equal(t, "42", body)

	records := sink.Maps()
	// app level stage, then the route level one
	require.Len(t, records, 4)
	assert.NotContains(t, records[0], "request_path.id")
	assert.Equal(t, "42", records[1]["request_path.id"])
}

func TestRequestIDExposedToHandlers(t *testing.T) {
	app, sink := newApp(t, observability.Options{})

	req := httptest.NewRequest("GET", "/request_id", nil)
	req.Header.Set("X-Request-Id", "abc")
	_, body := do(t, app, req)

	assert.Equal(t, "abc,1-2-3-4-5|abc,1-2-3-4-5", body)
	assert.Equal(t, "abc,1-2-3-4-5", sink.Maps()[0]["request_id"])
}

func TestConcurrentRequests(t *testing.T) {
	app, sink := newApp(t, observability.Options{IDGenerator: correlation.NewToken})
	const n = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "/logging"
			if i%2 == 0 {
				path = "/logging_failure"
			}
			req := httptest.NewRequest("GET", fmt.Sprintf("%s?i=%d", path, i), nil)
			req.Header.Set("X-Request-Id", fmt.Sprintf("seed-%d", i))
			resp, err := app.Test(req, -1)
			if assert.NoError(t, err) {
				resp.Body.Close()
			}
		}(i)
	}
	wg.Wait()

	byID := make(map[string][]map[string]interface{})
	for _, r := range sink.Maps() {
		id := r["request_id"].(string)
		byID[id] = append(byID[id], r)
	}
	require.Len(t, byID, n)
	for id, records := range byID {
		require.Len(t, records, 2, id)
		seed := strings.SplitN(id, ",", 2)[0]
		var i int
		_, err := fmt.Sscanf(seed, "seed-%d", &i)
		require.NoError(t, err)

		for _, r := range records {
			assert.Equal(t, fmt.Sprint(i), r["request_args.i"])
			assert.Equal(t, seed, r["request_headers.x-request-id"])
		}
		if i%2 == 0 {
			assert.Equal(t, "/logging_failure", records[0]["request_url.path"])
			assert.Equal(t, "error", records[1]["request_status"])
		} else {
			assert.Equal(t, "/logging", records[0]["request_url.path"])
			assert.Equal(t, "success", records[1]["request_status"])
		}
	}
}
