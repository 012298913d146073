// Package health serves the liveness page, a readiness check and Prometheus metrics.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/postbot/core/buildinfo"
	"github.com/m3rciful/postbot/core/logger"
)

const defaultPort = "10000"

// Config holds the listener settings.
type Config struct {
	Disabled bool   `yaml:"disabled" envconfig:"DISABLED"`
	Listen   string `yaml:"listen" envconfig:"LISTEN"`
}

// Normalize fills Listen from $PORT, falling back to :10000.
func (c *Config) Normalize() error {
	c.Listen = strings.TrimSpace(c.Listen)
	if c.Listen == "" {
		port := strings.TrimSpace(os.Getenv("PORT"))
		if port == "" {
			port = defaultPort
		}
		c.Listen = ":" + port
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("health.listen %q: %w", c.Listen, err)
	}
	return nil
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP side of the process.
type Server struct {
	srv *http.Server
}

// NewRouter builds the gin engine. reg may be nil to omit /metrics.
func NewRouter(store Pinger, reg prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Bot is Running! ✅")
	})
	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "fail", "store": err.Error(), "version": buildinfo.Version})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "ok", "version": buildinfo.Version})
	})
	if reg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	return r
}

// New prepares a server on cfg.Listen.
func New(cfg Config, store Pinger, reg prometheus.Gatherer) *Server {
	return &Server{srv: &http.Server{
		Addr:              cfg.Listen,
		Handler:           NewRouter(store, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start listens in the background. Bind errors are returned synchronously.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("health: listen %s: %w", s.srv.Addr, err)
	}
	logger.HTTP.Info("health server started",
		slog.String("event", "http.start"),
		slog.String("listen", ln.Addr().String()),
	)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.HTTP.Error("health server stopped",
				slog.String("event", "http.fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("health: shutdown: %w", err)
	}
	logger.HTTP.Info("health server stopped", slog.String("event", "http.stop"))
	return nil
}
