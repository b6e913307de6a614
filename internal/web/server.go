// Package web serves the single-page operator form and a small JSON API over
// the same operator actions as the terminal dashboard.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/outbound-caller/cli/cmd/config"
	"github.com/outbound-caller/cli/cmd/dispatch"
	"github.com/outbound-caller/cli/cmd/history"
	"github.com/outbound-caller/cli/cmd/liveness"
	"github.com/outbound-caller/cli/cmd/operator"
	"github.com/outbound-caller/cli/cmd/utils"
)

// Backend is the set of operator actions the server exposes.
type Backend interface {
	CheckAgent(ctx context.Context) liveness.Verdict
	Environment() config.Environment
	PlaceCall(ctx context.Context, req dispatch.Request, force bool) (*operator.CallOutcome, error)
	RecentCalls(ctx context.Context, n int) ([]history.Record, error)
	StartCommand() string
	NotRunningMessage() string
}

// Config holds the listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// RecentCalls is how many calls the page lists.
	RecentCalls int
}

// DefaultConfig listens on loopback only; the page can place real calls.
func DefaultConfig() Config {
	return Config{
		Addr:            config.DefaultServerAddr,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RecentCalls:     10,
	}
}

// Server is the HTTP front end.
type Server struct {
	backend    Backend
	config     Config
	router     chi.Router
	httpServer *http.Server
}

// New builds a server; call ListenAndServe to start it.
func New(cfg Config, backend Backend) *Server {
	s := &Server{backend: backend, config: cfg}
	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.With(sameOrigin).Post("/calls", s.handleFormCall)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Get("/status", s.handleStatus)
		r.Get("/calls", s.handleListCalls)
		r.With(sameOrigin).Post("/calls", s.handleCreateCall)
	})
	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			utils.LogDebug(fmt.Sprintf("http %s %s -> %d (%s) id=%s",
				r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

// sameOrigin rejects requests a browser sent on behalf of another site.
// Requests without Origin or Sec-Fetch-Site headers (curl, scripts) pass.
func sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch site := r.Header.Get("Sec-Fetch-Site"); site {
		case "", "same-origin", "none":
		default:
			respondError(w, http.StatusForbidden, "cross-origin request rejected")
			return
		}
		if origin := r.Header.Get("Origin"); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || u.Host == "" || !strings.EqualFold(u.Host, r.Host) {
				respondError(w, http.StatusForbidden, "cross-origin request rejected")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
