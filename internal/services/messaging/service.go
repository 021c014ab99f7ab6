package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/logging"
)

// Service publishes analysis events as JSON over NATS
type Service struct {
	conn   *nats.Conn
	cfg    *config.Config
	logger zerolog.Logger
}

func NewService(cfg *config.Config) (*Service, error) {
	logger := logging.NewServiceLogger(cfg, "messaging")

	opts := []nats.Option{
		nats.Name("genai-yolo-" + cfg.WorkerID),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NatsURL, err)
	}

	logger.Info().Str("url", cfg.NatsURL).Str("subject", cfg.EventsSubject).Msg("NATS connection established")

	return &Service{
		conn:   conn,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Publish marshals data to JSON and publishes it on subject
func (s *Service) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return s.conn.Publish(subject, payload)
}

func (s *Service) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn != nil {
		// Try graceful drain, fallback to immediate close
		if err := s.conn.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
			s.conn.Close()
		}
	}
	return nil
}
