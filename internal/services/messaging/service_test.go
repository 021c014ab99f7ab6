package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"genai-yolo-go/internal/config"
)

func TestNewServiceUnreachable(t *testing.T) {
	cfg := &config.Config{
		WorkerID:           "test",
		NatsURL:            "nats://127.0.0.1:1",
		NatsConnectTimeout: 200 * time.Millisecond,
		NatsReconnectWait:  10 * time.Millisecond,
		NatsMaxReconnects:  0,
	}

	svc, err := NewService(cfg)
	assert.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "nats://127.0.0.1:1")
}

func TestNilConnectionIsDisconnected(t *testing.T) {
	var s Service
	assert.False(t, s.IsConnected())
	assert.NoError(t, s.Shutdown(context.Background()))
}
