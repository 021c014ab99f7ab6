package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"genai-yolo-go/internal/services"
)

// SystemHandler reports process and pipeline statistics
type SystemHandler struct {
	WorkerID  string
	container *services.ServiceContainer
	hub       *SessionHub
}

func NewSystemHandler(workerID string, container *services.ServiceContainer, hub *SessionHub) *SystemHandler {
	return &SystemHandler{
		WorkerID:  workerID,
		container: container,
		hub:       hub,
	}
}

var startTime = time.Now()

// @Summary Get system stats
// @Description Get process statistics, live sessions and open display handles
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := gin.H{
		"worker_id":         h.WorkerID,
		"uptime_seconds":    int64(time.Since(startTime).Seconds()),
		"memory_mb":         m.Alloc / 1024 / 1024,
		"cpu_cores":         runtime.NumCPU(),
		"goroutines":        runtime.NumGoroutine(),
		"go_version":        runtime.Version(),
		"sessions":          h.container.Sessions.Count(),
		"websocket_clients": h.hub.ClientCount(),
		"nats_connected":    h.container.Messaging != nil && h.container.Messaging.IsConnected(),
	}
	if h.container.MediaStore != nil {
		stats["open_media_handles"] = h.container.MediaStore.Live()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"stats":     stats,
		"timestamp": time.Now().Unix(),
	})
}
