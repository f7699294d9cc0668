// Package server exposes the working set over HTTP: records, projected
// figures, classifier predictions, events, metrics and a live websocket feed.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"

	"github.com/litescript/ls-exoplanets/internal/classify"
	"github.com/litescript/ls-exoplanets/internal/logging"
	"github.com/litescript/ls-exoplanets/internal/metrics"
	"github.com/litescript/ls-exoplanets/internal/state"
)

const shutdownTimeout = 5 * time.Second

// Config configures the HTTP API.
type Config struct {
	Addr         string
	RateLimit    float64 // requests per second per client IP; <= 0 disables
	Burst        int
	PushInterval time.Duration
	LogLevel     string
}

// DefaultConfig returns the standard server settings.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:5001",
		RateLimit:    10,
		Burst:        20,
		PushInterval: 10 * time.Second,
		LogLevel:     "info",
	}
}

// Server wires the state manager to an echo instance.
type Server struct {
	cfg     Config
	e       *echo.Echo
	state   *state.Manager
	model   *classify.Model
	metrics *metrics.Collector
	log     *logging.Logger

	upgrader websocket.Upgrader
}

// New builds the server and registers its routes. model may be nil, in
// which case prediction endpoints answer 503. m may be nil.
func New(st *state.Manager, model *classify.Model, m *metrics.Collector, logger *logging.Logger, cfg Config) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if cfg.PushInterval <= 0 {
		cfg.PushInterval = DefaultConfig().PushInterval
	}

	s := &Server{
		cfg:     cfg,
		e:       echo.New(),
		state:   st,
		model:   model,
		metrics: m,
		log:     logger.With("http"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.build()
	return s
}

func (s *Server) build() {
	e := s.e
	e.HideBanner = true
	e.HidePort = true

	switch strings.ToLower(s.cfg.LogLevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
	case "info":
		e.Logger.SetLevel(log.INFO)
	case "warn", "":
		e.Logger.SetLevel(log.WARN)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	case "off":
		e.Logger.SetLevel(log.OFF)
	default:
		e.Logger.SetLevel(log.WARN)
		s.log.Warn("unknown log level %q, falling back to warn", s.cfg.LogLevel)
	}

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)
		if statusOf(c, err) >= http.StatusInternalServerError {
			s.log.Error("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		}
	}

	e.Use(s.requestLogger())
	if s.cfg.RateLimit > 0 {
		burst := s.cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		e.Use(NewIPRateLimiter(rate.Limit(s.cfg.RateLimit), burst).Middleware())
	}

	e.GET("/api/exoplanets", s.listExoplanets)
	e.POST("/api/exoplanets", s.addExoplanet)
	e.GET("/api/projection", s.projection)
	e.POST("/api/predict", s.predict)
	e.GET("/api/events", s.events)
	e.GET("/api/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	e.GET("/ws", s.websocket)
}

// requestLogger logs each request and feeds the HTTP metrics.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			begin := time.Now()
			err := next(c)
			took := time.Since(begin)

			status := statusOf(c, err)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			s.metrics.RecordRequest(route, c.Request().Method, status, took)
			s.log.Debug("%s %s -> %d in %v", c.Request().Method, c.Request().URL, status, took)
			return err
		}
	}
}

// statusOf returns the status a request will be answered with.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

// Start serves on the configured address until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.e.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("shutdown: %v", err)
		}
	}()

	s.log.Info("listening on %s", s.cfg.Addr)
	if err := s.e.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
