package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"genai-yolo-go/internal/logging"
	"genai-yolo-go/internal/services/analysis"
)

// healthChecker is implemented by detector backends that can be probed
type healthChecker interface {
	CheckHealth(ctx context.Context) error
}

type HealthHandler struct {
	WorkerID string
	Version  string
	backend  analysis.Backend
}

func NewHealthHandler(workerID, version string, backend analysis.Backend) *HealthHandler {
	return &HealthHandler{WorkerID: workerID, Version: version, backend: backend}
}

type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	WorkerID string `json:"worker_id" example:"detector-1"`
	Detector string `json:"detector" example:"ok"`
}

type WorkerInfoResponse struct {
	WorkerID     string   `json:"worker_id" example:"detector-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Backend      string   `json:"backend" example:"gemini"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Check if the worker is healthy and its detector backend is reachable
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		WorkerID: h.WorkerID,
		Detector: "unchecked",
	}

	if checker, ok := h.backend.(healthChecker); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := checker.CheckHealth(ctx); err != nil {
			logging.Warn(c).Err(err).Msg("Detector backend health check failed")
			resp.Status = "degraded"
			resp.Detector = "unreachable"
		} else {
			resp.Detector = "ok"
		}
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Worker information
// @Description Get basic worker information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID: h.WorkerID,
		Status:   "running",
		Version:  h.Version,
		Backend:  h.backend.Name(),
		Capabilities: []string{
			"image_detection",
			"video_frame_detection",
			"overlay_rendering",
			"annotated_stills",
			"websocket_updates",
		},
	})
}
