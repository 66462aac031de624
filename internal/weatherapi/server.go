package weatherapi

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stratus/pkg/logging"
)

const subsystem = "WeatherAPI"

// DefaultShutdownTimeout bounds graceful shutdown when Config.ShutdownTimeout is unset.
const DefaultShutdownTimeout = 10 * time.Second

// Config configures a Server.
type Config struct {
	// Verifier checks bearer tokens. Nil serves the forecast without
	// authentication.
	Verifier Verifier

	// RequiredPermission is the scope or app role the forecast requires.
	RequiredPermission string

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// Now and Rand make forecasts deterministic in tests.
	Now  func() time.Time
	Rand *rand.Rand
}

// Server is the weather API.
type Server struct {
	router          chi.Router
	metrics         *Metrics
	shutdownTimeout time.Duration
}

// New creates a Server and its routes.
func New(cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		router:          chi.NewRouter(),
		metrics:         NewMetrics(),
		shutdownTimeout: shutdownTimeout,
	}
	f := &forecaster{now: now, rnd: rnd}

	s.router.Use(WithRequestID)
	s.router.Use(s.metrics.Middleware)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Group(func(r chi.Router) {
		if cfg.Verifier != nil {
			r.Use(RequireAuth(cfg.Verifier, cfg.RequiredPermission, s.metrics))
		} else {
			logging.Warn(subsystem, "Bearer authentication is disabled")
		}
		r.Get("/WeatherForecast", f.serveHTTP)
	})

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// ready, if non-nil, is called once the listener is accepting.
func (s *Server) Serve(ctx context.Context, ln net.Listener, ready func()) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	logging.Info(subsystem, "Serving weather API on %s", ln.Addr())
	if ready != nil {
		ready()
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	logging.Info(subsystem, "Shutting down weather API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
