package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"slotbook/internal/config"
	"slotbook/internal/domain"
	"slotbook/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Services bundles the domain services the HTTP handlers call.
type Services struct {
	Members       *service.MemberService
	Bookings      *service.BookingService
	Comments      *service.CommentService
	Activity      *service.ActivityService
	Participation *service.ParticipationService
}

// Pinger reports database reachability for /readyz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTPServer exposes the booking JSON API.
type HTTPServer struct {
	cfg      config.APIConfig
	services Services
	db       Pinger
	server   *http.Server
	auth     *HTTPAuth
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, services Services, db Pinger, limiter domain.RateLimiter, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:      cfg,
		services: services,
		db:       db,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg, limiter, logger)

	readTimeout := time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	return srv
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(s.logger))
	r.Use(corsMiddleware(s.cfg.CORS.AllowedOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Wrap)
		s.mount(r)
		r.Route("/api", s.mount)
	})

	return r
}

func (s *HTTPServer) mount(r chi.Router) {
	r.Get("/members", s.handleMembers)

	r.Get("/bookings", s.handleListBookings)
	r.Post("/bookings", s.handleCreateBooking)
	r.Post("/bookings/cancel", s.handleCancelBooking)
	r.Get("/calendar", s.handleCalendar)

	r.Get("/comments", s.handleListComments)
	r.Post("/comments", s.handleCreateComment)

	r.Get("/participation", s.handleParticipation)
	r.Get("/participation/export", s.handleParticipationExport)

	r.Get("/activity", s.handleActivity)
}

// Handler returns the root handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
