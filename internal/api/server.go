// Package api serves the dashboard commands over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"surveydash/app"
	"surveydash/internal"
)

// Server is the dashboard HTTP server
type Server struct {
	router  *gin.Engine
	service *app.DashboardService
	logger  *internal.Logger
}

// NewServer creates a server with every route registered
func NewServer(service *app.DashboardService, ginMode string) *Server {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}
	s := &Server{
		router:  gin.New(),
		service: service,
		logger:  internal.DefaultLogger.WithComponent("API"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	api.GET("/datasets", s.handleDatasets)
	api.GET("/interventions", s.handleInterventions)
	api.GET("/commands", s.handleCommandKinds)

	api.GET("/reports", s.handleListRuns)
	api.GET("/reports/:runId", s.handleGetRun)

	api.GET("/sessions", s.handleListSessions)
	api.POST("/sessions", s.handleCreateSession)
	api.POST("/sessions/upload", s.handleUploadSession)

	sessions := api.Group("/sessions/:id", requireSession(s.service.Sessions()))
	sessions.GET("", s.handleGetSession)
	sessions.DELETE("", s.handleDeleteSession)
	sessions.POST("/commands", s.handleCommand)
	sessions.POST("/export", s.handleExport)
	sessions.GET("/report/:intervention", s.handleReport)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting surveydash on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
