package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const (
	ctxRequestID ctxKey = "request_id"
	ctxStartTime ctxKey = "start_time"
	ctxSessionID ctxKey = "session_id"
)

// Context keys shared with the API middleware
const (
	RequestIDKey = string(ctxRequestID)
	StartTimeKey = string(ctxStartTime)
	SessionIDKey = string(ctxSessionID)
)

// SetSession tags the request with the session it operates on
func SetSession(c *gin.Context, sessionID string) {
	c.Set(SessionIDKey, sessionID)
}

func withGinContext(c *gin.Context, e *zerolog.Event) *zerolog.Event {
	if c == nil {
		return e
	}
	for _, key := range []string{RequestIDKey, SessionIDKey} {
		if v, ok := c.Get(key); ok {
			if s, ok2 := v.(string); ok2 && s != "" {
				e.Str(key, s)
			}
		}
	}
	if v, ok := c.Get(StartTimeKey); ok {
		if t, ok2 := v.(time.Time); ok2 {
			e.Dur("duration", time.Since(t))
		}
	}
	return e
}

func Info(c *gin.Context) *zerolog.Event  { return withGinContext(c, log.Info()) }
func Debug(c *gin.Context) *zerolog.Event { return withGinContext(c, log.Debug()) }
func Warn(c *gin.Context) *zerolog.Event  { return withGinContext(c, log.Warn()) }
func Error(c *gin.Context) *zerolog.Event { return withGinContext(c, log.Error()) }
