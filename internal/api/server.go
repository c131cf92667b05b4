// Package api serves the push subscription backend and the app's static files.
package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/bnema/candyland/internal/application/usecase"
	"github.com/bnema/candyland/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// ReminderScheduler schedules a reminder broadcast.
type ReminderScheduler interface {
	Schedule(ctx context.Context, delay time.Duration) (time.Time, error)
}

// Deps are the use cases behind the endpoints.
type Deps struct {
	Subscriptions  *usecase.ManageSubscriptionsUseCase
	Notifications  usecase.Broadcaster
	Reminders      ReminderScheduler
	VAPIDPublicKey string
}

// Options configure the HTTP surface.
type Options struct {
	// PublicDir holds the static app. Empty disables static serving.
	PublicDir    string
	AllowOrigins []string
	// DefaultReminderDelay applies when a reminder request has no delay.
	DefaultReminderDelay time.Duration
}

// Server is the subscription backend.
type Server struct {
	echo      *echo.Echo
	deps      Deps
	opts      Options
	startedAt time.Time
	now       func() time.Time
}

// NewServer builds the echo instance and registers every route. logger is
// attached to each request context.
func NewServer(deps Deps, opts Options, logger zerolog.Logger) *Server {
	if opts.DefaultReminderDelay <= 0 {
		opts.DefaultReminderDelay = 5 * time.Minute
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}

	s := &Server{
		echo:      NewEcho(logger),
		deps:      deps,
		opts:      opts,
		startedAt: time.Now(),
		now:       time.Now,
	}
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: opts.AllowOrigins}))
	s.registerRoutes()
	return s
}

// NewEcho returns an echo instance with the shared middleware stack: panic
// recovery, a request-scoped zerolog logger, request logging and JSON errors.
func NewEcho(logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Use(middleware.Recover())
	e.Use(withLogger(logger))
	e.Use(requestLogger())
	return e
}

func (s *Server) registerRoutes() {
	s.echo.GET("/vapidPublicKey", s.handleVAPIDPublicKey)
	s.echo.POST("/subscribe", s.handleSubscribe)
	s.echo.POST("/unsubscribe", s.handleUnsubscribe)
	s.echo.POST("/sendNotification", s.handleSendNotification)
	s.echo.POST("/scheduleReminder", s.handleScheduleReminder)
	s.echo.GET("/stats", s.handleStats)
	s.echo.GET("/status", s.handleStatus)

	if s.opts.PublicDir != "" {
		s.registerPWARoutes()
		s.echo.Static("/", s.opts.PublicDir)
		s.echo.GET("/", func(c echo.Context) error {
			return c.File(filepath.Join(s.opts.PublicDir, "index.html"))
		})
	}
}

// Handler exposes the server as an http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	return Run(ctx, s.echo, addr)
}

// Run serves e on addr until ctx is cancelled.
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	log := logging.FromContext(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down")
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func shortKey(key string) string {
	const n = 20
	if len(key) <= n {
		return key + "..."
	}
	return key[:n] + "..."
}
