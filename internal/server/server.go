// Package server serves documents from a directory through the translating
// transformer.
package server

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/ZaguanLabs/tlproxy/internal/config"
	"github.com/ZaguanLabs/tlproxy/internal/logger"
	"github.com/ZaguanLabs/tlproxy/processor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 15 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server serves translated documents. It is immutable after New.
type Server struct {
	cfg         config.Config
	creds       tlproxy.Credentials
	docs        fs.FS
	transformer *processor.Transformer
	logger      *slog.Logger
	checks      map[string]HealthCheck
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHealthCheck adds a named check to /healthz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// New creates a server reading documents from docs. A nil translator serves
// every document untranslated.
func New(cfg config.Config, translator processor.FragmentTranslator, docs fs.FS, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		creds:  cfg.Credentials(),
		docs:   docs,
		logger: logger.NewNope(),
		checks: make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(s)
	}

	topts := []processor.Option{
		processor.WithProtectedTags(cfg.ProtectedTags...),
		processor.WithLogger(s.logger),
	}
	if cfg.Sanitize {
		topts = append(topts, processor.WithSanitizer(nil))
	}
	s.transformer = processor.NewTransformer(translator, topts...)

	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get(s.cfg.ScriptPath, s.handlePage)
	if s.cfg.ScriptPath != "/" {
		r.Get("/", s.handlePage)
	}
	r.Get("/*", s.handleFile)

	return r
}

// Run serves on cfg.Listen until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}
	if s.cfg.RequestTimeout > 0 {
		srv.WriteTimeout = s.cfg.RequestTimeout + 5*time.Second
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "health check failed",
				slog.String("check", name),
				slog.Any("error", err))
			http.Error(w, "unavailable: "+name, http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.InfoContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("elapsed", time.Since(start)))
	})
}
