package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tuncerburak97/gozlem/internal/config"
	"github.com/tuncerburak97/gozlem/internal/echolog"
	"github.com/tuncerburak97/gozlem/internal/fiberlog"
	"github.com/tuncerburak97/gozlem/internal/httplog"
	"github.com/tuncerburak97/gozlem/internal/observability"
)

// serviceInfo is served on / by every framework.
type serviceInfo struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

func info(cfg *config.Config) serviceInfo {
	return serviceInfo{
		Title:       cfg.Info.Title,
		Version:     cfg.Info.Version,
		Environment: config.Environment(),
	}
}

type fiberServer struct {
	app *fiber.App
}

func newFiberServer(cfg *config.Config, m *observability.Middleware) *fiberServer {
	opts := fiberlog.StackOptions{
		CORS:         cfg.Middleware.CORS,
		Compress:     cfg.Middleware.Compress,
		ReverseProxy: cfg.Middleware.ReverseProxy,
	}
	app := fiber.New(fiberlog.Configure(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, opts))
	fiberlog.Use(app, m, opts)

	if cfg.Observability.Metrics.Enabled {
		app.Get(cfg.Observability.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(info(cfg))
	})
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": c.Params("id")})
	})
	app.Post("/items", func(c *fiber.Ctx) error {
		return fiberlog.Location(c, "/items/"+uuid.NewString())
	})
	return &fiberServer{app: app}
}

func (s *fiberServer) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *fiberServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

type httpServer struct {
	srv *http.Server
}

func newHTTPServer(cfg *config.Config, m *observability.Middleware) *httpServer {
	r := chi.NewRouter()
	r.Use(httplog.Stack(m, httplog.StackOptions{
		CORS:          cfg.Middleware.CORS,
		Compress:      cfg.Middleware.Compress,
		CompressTypes: cfg.Middleware.CompressMimetypes,
		ReverseProxy:  cfg.Middleware.ReverseProxy,
	})...)

	if cfg.Observability.Metrics.Enabled {
		r.Handle(cfg.Observability.Metrics.Path, promhttp.Handler())
	}
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, info(cfg))
	})
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": chi.URLParam(r, "id")})
	})
	r.Post("/items", func(w http.ResponseWriter, r *http.Request) {
		httplog.Location(w, r, "/items/"+uuid.NewString())
	})

	return &httpServer{srv: &http.Server{
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *httpServer) Listen(addr string) error {
	s.srv.Addr = addr
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *httpServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type echoServer struct {
	e *echo.Echo
}

func newEchoServer(cfg *config.Config, m *observability.Middleware) *echoServer {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout
	echolog.Use(e, m, echolog.StackOptions{
		CORS:         cfg.Middleware.CORS,
		Compress:     cfg.Middleware.Compress,
		ReverseProxy: cfg.Middleware.ReverseProxy,
	})

	if cfg.Observability.Metrics.Enabled {
		e.GET(cfg.Observability.Metrics.Path, echo.WrapHandler(promhttp.Handler()))
	}
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, info(cfg))
	})
	e.GET("/items/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
	})
	e.POST("/items", func(c echo.Context) error {
		return echolog.Location(c, "/items/"+uuid.NewString())
	})
	return &echoServer{e: e}
}

func (s *echoServer) Listen(addr string) error {
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *echoServer) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
