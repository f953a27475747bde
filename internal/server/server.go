package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/healthbridge-lab/healthbridge/internal/store"
)

type Server struct {
	Engine *gin.Engine
	Addr   string
	handle *store.Lazy
}

// Pinger is implemented by store backends that can verify connectivity.
// The health endpoint detects it with a type assertion; backends without it
// count as healthy once initialized.
type Pinger interface {
	Ping(ctx context.Context) error
}

func New(addr string, handle *store.Lazy, mode string) *Server {
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), RequestID())

	s := &Server{
		Engine: r,
		Addr:   addr,
		handle: handle,
	}

	r.GET("/health", s.healthHandler)

	return s
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	st, err := s.handle.Get()
	if err != nil {
		slog.Error("Health check failed: store unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "health store unavailable",
		})
		return
	}

	if p, ok := st.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			slog.Error("Health check failed: store unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "health store unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"store":  "connected",
	})
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Engine,
	}

	slog.Info("Starting HTTP Server...", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("Stopping HTTP Server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP Server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
