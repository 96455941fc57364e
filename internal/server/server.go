// Package server builds the gin router and runs the HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgard/linerelay/internal/config"
	"github.com/edgard/linerelay/internal/logger"
	"github.com/edgard/linerelay/internal/metrics"
)

// NewRouter creates a gin engine with request IDs, access logging, metrics,
// panic recovery, JSON 404/405 bodies, /healthz and /metrics.
func NewRouter(log *slog.Logger, m *metrics.Metrics, mode string) *gin.Engine {
	if mode != "" && mode != gin.Mode() {
		gin.SetMode(mode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(logger.RequestID())
	router.Use(logger.Middleware(log))
	router.Use(m.Middleware())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.ErrorContext(c, "Recovered from panic in HTTP handler",
			"panic", recovered, "path", c.Request.URL.Path, "request_id", logger.GetRequestID(c))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}))

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method not allowed"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return router
}

// Server wraps http.Server with context-driven shutdown.
type Server struct {
	srv *http.Server
	cfg config.ServerConfig
	log *slog.Logger
}

// New creates a Server serving handler with the configured timeouts.
func New(cfg config.ServerConfig, handler http.Handler, log *slog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		cfg: cfg,
		log: log.With("component", "http_server"),
	}
}

// Run listens on the configured address until ctx is done, then shuts down
// gracefully within ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server...", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}
