// Package api serves user matching and description search over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poiesic/ledgermatch/core"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service is the matching and search backend the HTTP layer serves.
type Service interface {
	MatchUsers(ctx context.Context, transactionID string) (core.RankedResult, error)
	SearchSimilarDescriptions(ctx context.Context, query string) (core.RankedResult, int, error)
}

// Server exposes a Service over HTTP.
type Server struct {
	echo    *echo.Echo
	service Service
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the logger for access and error logs.
// If logger is nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "api")
		return nil
	}
}

// NewServer builds the echo instance and registers every route.
func NewServer(service Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}

	s := &Server{
		service: service,
		logger:  slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(s.logger)

	e.Use(middleware.Recover())
	e.Use(requestLogger(s.logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}))

	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/match-users/:transaction_id", s.matchUsers)
	e.GET("/search-similar-descriptions", s.searchSimilarDescriptions)

	s.echo = e
	return s, nil
}

// ServeHTTP makes the server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr and blocks until the server stops.
// A graceful shutdown is not reported as an error.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting http server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

func (s *Server) matchUsers(c echo.Context) error {
	id := c.Param("transaction_id")

	result, err := s.service.MatchUsers(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(statusFor(err), "Error matching users: "+err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, NewMatchUsersResponse(result))
}

func (s *Server) searchSimilarDescriptions(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationMessage(err)).SetInternal(err)
	}

	result, tokens, err := s.service.SearchSimilarDescriptions(c.Request().Context(), req.Query)
	if err != nil {
		return echo.NewHTTPError(statusFor(err), "Error searching descriptions: "+err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, NewSearchResponse(result, tokens))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrProviderFailure):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrEmptyQuery), errors.Is(err, core.ErrEmptyID):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msg := "invalid request:"
	for _, fe := range verrs {
		msg += fmt.Sprintf(" field '%s' failed rule '%s'", fe.Field(), fe.Tag())
	}
	return msg
}
