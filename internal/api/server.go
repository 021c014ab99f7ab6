package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"genai-yolo-go/internal/api/handlers"
	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/services"
)

type Server struct {
	config    *config.Config
	container *services.ServiceContainer
	router    *gin.Engine
	server    *http.Server

	healthHandler  *handlers.HealthHandler
	sessionHandler *handlers.SessionHandler
	systemHandler  *handlers.SystemHandler
	hub            *handlers.SessionHub
}

// NewServer builds the router around an already constructed service container
func NewServer(cfg *config.Config, container *services.ServiceContainer) *Server {
	gin.SetMode(gin.ReleaseMode)

	hub := handlers.NewSessionHub(cfg, container.Sessions)
	s := &Server{
		config:         cfg,
		container:      container,
		router:         gin.New(),
		healthHandler:  handlers.NewHealthHandler(cfg.WorkerID, cfg.Version, container.Backend),
		sessionHandler: handlers.NewSessionHandler(cfg, container.Sessions),
		systemHandler:  handlers.NewSystemHandler(cfg.WorkerID, container, hub),
		hub:            hub,
	}

	// Multipart bodies above this are spooled to disk by net/http
	s.router.MaxMultipartMemory = cfg.MaxUploadBytes

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting detector API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, disconnects websocket clients and closes all services
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping detector API")

	s.hub.CloseAll()
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.container.Shutdown(ctx)
}
