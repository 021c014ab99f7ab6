package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/helpers"
	"genai-yolo-go/internal/logging"
	"genai-yolo-go/internal/models"
)

// Backend submits one still to an inference service and returns the raw JSON body.
// An empty body with a nil error means the service found nothing.
type Backend interface {
	Name() string
	Infer(ctx context.Context, still models.Still) ([]byte, error)
}

// Gateway is the single entry point for object detection on a still
type Gateway struct {
	backend Backend
	backoff *failureBackoff
	logger  zerolog.Logger

	timeout     time.Duration
	maxDim      int
	jpegQuality int
}

// NewGateway wraps a backend with timeout, oversize protection, schema validation and failure backoff
func NewGateway(cfg *config.Config, backend Backend) *Gateway {
	return &Gateway{
		backend:     backend,
		backoff:     newFailureBackoff(cfg.AIRetryBackoffMax),
		logger:      logging.NewServiceLogger(cfg, "analysis").With().Str("backend", backend.Name()).Logger(),
		timeout:     cfg.AITimeout,
		maxDim:      cfg.MaxAnalysisDimension,
		jpegQuality: cfg.AnalysisJPEGQuality,
	}
}

// Detect returns the objects found in still. Backend failures come back as *AnalysisError;
// a payload that does not match the detection schema yields zero detections.
func (g *Gateway) Detect(ctx context.Context, still models.Still) ([]models.DetectionObject, error) {
	if !g.backoff.shouldRetry() {
		return nil, &AnalysisError{Err: ErrBackoff}
	}

	prepared, err := helpers.PrepareStill(still, g.maxDim, g.jpegQuality)
	if err != nil {
		// Undecodable stills are still forwarded; the backend has the final word
		g.logger.Debug().Err(err).Str("mime", still.MIME).Msg("Could not inspect still, sending as is")
		prepared = still
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	body, err := g.backend.Infer(ctx, prepared)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			g.backoff.recordFailure()
		}
		g.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Detection request failed")
		return nil, &AnalysisError{Err: fmt.Errorf("%s backend: %w", g.backend.Name(), err)}
	}
	g.backoff.recordSuccess()

	detections, err := parseDetections(body)
	if err != nil {
		g.logger.Warn().
			Err(err).
			Int("body_bytes", len(body)).
			Msg("MalformedResponse: detector payload does not match schema, treating as zero detections")
		return []models.DetectionObject{}, nil
	}

	g.logger.Debug().
		Int("detections", len(detections)).
		Int("width", prepared.Width).
		Int("height", prepared.Height).
		Dur("elapsed", time.Since(start)).
		Msg("Detection completed")

	return detections, nil
}
