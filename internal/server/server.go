package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/4thel00z/consent/internal"
	"github.com/4thel00z/consent/internal/logger"
	"github.com/gin-gonic/gin"
)

type Config struct {
	Host           string
	Port           int
	RateLimit      string
	RequestTimeout time.Duration
	IndexBackend   string
}

func ConfigFrom(cfg *internal.Config) Config {
	return Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		RateLimit:      cfg.Server.RateLimit,
		RequestTimeout: cfg.Embeddings.Timeout,
		IndexBackend:   cfg.Index.Backend,
	}
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type Server struct {
	config     Config
	classifier *internal.Classifier
	dispatch   *internal.DispatchUseCase
	metrics    *internal.Metrics
	log        logger.Logger
	router     *gin.Engine
}

func New(config Config, classifier *internal.Classifier, metrics *internal.Metrics, log logger.Logger) (*Server, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: server needs a classifier", internal.ErrConfiguration)
	}
	if log == nil {
		log = logger.GetDefault()
	}

	s := &Server{
		config:     config,
		classifier: classifier,
		dispatch:   internal.NewDispatchUseCase(classifier, nil, metrics),
		metrics:    metrics,
		log:        log,
	}
	if err := s.buildRouter(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) buildRouter() error {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(s.log))

	limit, err := RateLimitMiddleware(s.config.RateLimit)
	if err != nil {
		return err
	}

	api := router.Group("/api")
	if limit != nil {
		api.Use(limit)
	}
	api.POST("/analyseur_conversation", s.handleAnalyse)

	router.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router = router
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Address()
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", "address", fmt.Sprintf("http://%s", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Debug("Received shutdown signal, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("Server shutdown completed successfully")
	return nil
}
