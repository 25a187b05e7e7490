/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gantry/internal/agenda"
	"github.com/friendsincode/gantry/internal/api"
	"github.com/friendsincode/gantry/internal/audit"
	"github.com/friendsincode/gantry/internal/auth"
	"github.com/friendsincode/gantry/internal/config"
	"github.com/friendsincode/gantry/internal/db"
	"github.com/friendsincode/gantry/internal/events"
	"github.com/friendsincode/gantry/internal/telemetry"
	"github.com/friendsincode/gantry/internal/version"
)

// Server bundles the HTTP listener and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	metricsSrv *http.Server
	closers    []func() error

	db       *gorm.DB
	api      *api.API
	bus      *events.Bus
	auditSvc *audit.Service
	tracer   *telemetry.TracerProvider

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("gantry-api"))
	router.Use(telemetry.MetricsMiddleware)
	// Skip timeout for WebSocket connections; the event stream is
	// long-lived by design.
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(60 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.api.Routes(router)

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:    addr,
		Handler: srv.router,
		// Keep a header deadline to protect against slowloris; the
		// middleware timeout covers the rest.
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'; base-uri 'self'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	tracer, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "gantry",
		ServiceVersion: version.Version,
		OTLPEndpoint:   s.cfg.OTLPEndpoint,
		Enabled:        s.cfg.TracingEnabled,
		SampleRate:     s.cfg.TracingSampleRate,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	s.tracer = tracer

	s.auditSvc = audit.NewService(database, s.bus, s.logger)
	s.startBackgroundWorkers()

	apiSvc, err := api.New(api.Config{
		DB:        database,
		JWTSecret: s.cfg.JWTSigningKey,
		TokenTTL:  time.Duration(s.cfg.TokenTTLHours) * time.Hour,
		Revoked:   auth.NewRevocationList(),
		Schedule: agenda.WorkSchedule{
			StartHour:   s.cfg.WorkStartHour,
			HoursPerDay: s.cfg.WorkHours,
		},
		Bus:    s.bus,
		Logger: s.logger,
	})
	if err != nil {
		return fmt.Errorf("init api: %w", err)
	}
	s.api = apiSvc

	return nil
}

// startBackgroundWorkers launches the audit consumer and the periodic
// connection pool gauge updater. Both stop when Close cancels their context.
func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.auditSvc.Start(ctx)
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db.UpdateConnectionMetrics(s.db)
			}
		}
	}()
}

// Start runs the HTTP and metrics listeners until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.MetricsBind != "" {
		s.metricsSrv = &http.Server{
			Addr:              s.cfg.MetricsBind,
			Handler:           telemetry.Handler(),
			ReadHeaderTimeout: 15 * time.Second,
		}
		go func() {
			s.logger.Info().Str("addr", s.cfg.MetricsBind).Msg("metrics listener starting")
			if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http listener starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("http shutdown failed")
	}
	if s.metricsSrv != nil {
		if err := s.metricsSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("metrics shutdown failed")
		}
	}
	return s.Close()
}

// Close stops background services and runs all registered cleanup hooks.
func (s *Server) Close() error {
	if s.bgCancel != nil {
		s.bgCancel()
		s.bgWG.Wait()
	}
	if s.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.tracer.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("tracer shutdown failed")
		}
		cancel()
	}

	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Router exposes the HTTP router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// DB exposes the database handle, mainly for CLI subcommands.
func (s *Server) DB() *gorm.DB {
	return s.db
}
