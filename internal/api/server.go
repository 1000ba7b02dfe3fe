// Package api exposes SAR address extraction over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/connectfiber/sar-extractor/internal/config"
	"github.com/connectfiber/sar-extractor/internal/pdf"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Extractor is the part of the extraction service the API needs.
type Extractor interface {
	ExtractBatch(ctx context.Context, docs []pdf.Document) pdf.BatchResult
}

// Server wraps the gin router and its http.Server.
type Server struct {
	config    *config.Config
	extractor Extractor
	logger    *slog.Logger
	router    *gin.Engine
	limiter   *clientLimiter
}

// NewServer builds the router with its middleware chain and routes.
func NewServer(cfg *config.Config, extractor Extractor, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		config:    cfg,
		extractor: extractor,
		logger:    logger,
	}
	if cfg.RateLimit > 0 {
		s.limiter = newClientLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = s.config.MaxUploadBytes()

	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(s.logger))
	router.Use(RecoveryMiddleware(s.logger))
	router.Use(CORSMiddleware(s.config))
	router.Use(GzipMiddleware())

	router.GET("/", s.handleHome)

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", s.handleHealth)
	if s.limiter != nil {
		apiGroup.POST("/extract-sar-address", RateLimitMiddleware(s.limiter), s.handleExtract)
	} else {
		apiGroup.POST("/extract-sar-address", s.handleExtract)
	}

	return router
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	s.logger.Info("Graceful shutdown completed")
	return nil
}
