package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/models"
	"genai-yolo-go/internal/services/analysis"
	"genai-yolo-go/internal/services/framesampler"
	"genai-yolo-go/internal/services/media"
	"genai-yolo-go/internal/services/messaging"
	"genai-yolo-go/internal/session"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config     *config.Config
	Backend    analysis.Backend
	Gateway    *analysis.Gateway
	MediaStore *media.Store
	Sampler    *framesampler.Sampler
	Messaging  *messaging.Service
	Sessions   *session.Manager
}

// NewServiceContainer creates a new service container
func NewServiceContainer(ctx context.Context, cfg *config.Config) (*ServiceContainer, error) {
	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := media.NewStore(cfg)
	if err != nil {
		return nil, err
	}

	sc := &ServiceContainer{
		Config:     cfg,
		Backend:    backend,
		Gateway:    analysis.NewGateway(cfg, backend),
		MediaStore: store,
		Sampler:    framesampler.NewSampler(cfg),
	}

	// Events are optional; a nil publisher disables them
	var publisher models.MessagePublisher
	if cfg.NatsEnabled {
		msgSvc, err := messaging.NewService(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable, analysis events disabled")
		} else {
			sc.Messaging = msgSvc
			publisher = msgSvc
		}
	}

	sc.Sessions = session.NewManager(cfg, sc.Gateway, sc.Sampler, store, publisher)
	return sc, nil
}

func newBackend(ctx context.Context, cfg *config.Config) (analysis.Backend, error) {
	switch cfg.DetectorBackend {
	case config.BackendGemini:
		client, err := analysis.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return analysis.NewGeminiBackend(cfg, client), nil
	case config.BackendHTTP:
		return analysis.NewHTTPBackend(cfg), nil
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.DetectorBackend)
	}
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.Sessions != nil {
		if err := sc.Sessions.Shutdown(ctx); err != nil {
			return err
		}
	}

	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			return err
		}
	}

	if live := sc.MediaStore.Live(); live > 0 {
		log.Warn().Int64("handles", live).Msg("Display handles still open at shutdown")
	}

	return nil
}
