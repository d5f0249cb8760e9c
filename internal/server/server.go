// Package server exposes advisory passes and query statistics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Aman-CERP/dbadvisor/internal/check"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
	"github.com/Aman-CERP/dbadvisor/internal/output"
	"github.com/Aman-CERP/dbadvisor/internal/stats"
	"github.com/Aman-CERP/dbadvisor/pkg/version"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// StatsFunc produces the current query statistics.
type StatsFunc func() (stats.Result, error)

// Server serves the dbadvisor API.
type Server struct {
	echo   *echo.Echo
	runner *check.Runner
	stats  StatsFunc
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStats enables GET /api/stats.
func WithStats(fn StatsFunc) Option {
	return func(s *Server) {
		s.stats = fn
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Server running passes through runner.
func New(runner *check.Runner, opts ...Option) *Server {
	s := &Server{
		runner: runner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = readTimeout
	e.Server.WriteTimeout = writeTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			s.logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, version.Product())
			return next(c)
		}
	})

	e.GET("/healthz", s.handleHealth)
	e.GET("/api/advisories", s.handleAdvisories)
	e.GET("/api/stats", s.handleStats)

	s.echo = e
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", slog.String("addr", addr))
		err := s.echo.Start(addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return dberrors.InternalError("api server failed", err).WithDetail("addr", addr)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return dberrors.InternalError("api shutdown failed", err)
	}
	s.logger.Info("api stopped")
	return <-errCh
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", Version: version.Short()})
}

type advisoriesResponse struct {
	output.Document
	SecretGenerated bool `json:"secret_generated"`
	Persisted       bool `json:"persisted"`
	ServerCount     int  `json:"server_count"`
}

func (s *Server) handleAdvisories(c echo.Context) error {
	persist := c.QueryParam("persist") == "1"

	sink := output.NewCollector()
	report, err := s.runner.Run(c.Request().Context(), sink, persist)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, advisoriesResponse{
		Document:        output.NewDocument(sink.Advisories()),
		SecretGenerated: report.SecretGenerated,
		Persisted:       persist && report.SecretGenerated,
		ServerCount:     report.ServerCount,
	})
}

type statsResponse struct {
	stats.Result
	ChartOption json.RawMessage `json:"chart_option"`
}

func (s *Server) handleStats(c echo.Context) error {
	if s.stats == nil {
		return s.fail(c, dberrors.ValidationError("query statistics are not configured", nil).
			WithSuggestion("set stats.counters in the dbadvisor settings"))
	}

	res, err := s.stats()
	if err != nil {
		return s.fail(c, err)
	}
	chart, err := res.ChartJSON(stats.ChartTitle)
	if err != nil {
		return s.fail(c, dberrors.InternalError("failed to render chart", err))
	}
	return c.JSON(http.StatusOK, statsResponse{Result: res, ChartOption: chart})
}

// fail writes err as a JSON error document.
func (s *Server) fail(c echo.Context, err error) error {
	body, jerr := dberrors.FormatJSON(err)
	if jerr != nil {
		return jerr
	}
	s.logger.Warn("request failed", slog.String("uri", c.Request().RequestURI), slog.Any("error", dberrors.FormatForLog(err)))
	return c.JSONBlob(statusFor(err), body)
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	switch dberrors.GetCategory(err) {
	case dberrors.CategoryValidation:
		return http.StatusBadRequest
	case dberrors.CategoryStore:
		if dberrors.IsRetryable(err) {
			return http.StatusConflict
		}
		return http.StatusServiceUnavailable
	case dberrors.CategorySettings:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
