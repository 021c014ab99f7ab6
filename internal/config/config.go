package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Detector backends
const (
	BackendGemini = "gemini"
	BackendHTTP   = "http"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Detector backend: "gemini" talks to the Gemini API directly,
	// "http" posts stills to an external inference service
	DetectorBackend   string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float64
	DetectionLanguage string
	InferenceURL      string

	// Analysis
	AITimeout            time.Duration
	AIRetryBackoffMax    time.Duration // 0 disables failure backoff
	MaxAnalysisDimension int           // stills larger than this are downscaled before upload, 0 = never
	AnalysisJPEGQuality  int

	// Frame sampling (video)
	FrameJPEGQuality int

	// Media
	MediaDir       string
	MaxUploadBytes int64
	MaxSessions    int

	// NATS (analysis events)
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	EventsSubject      string

	// WebSocket session updates
	WSWriteTimeout time.Duration
	WSPingInterval time.Duration

	// Swagger Configuration
	SwaggerHost string
	SwaggerPort int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "detector-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Detector backend
		DetectorBackend:   getEnv("DETECTOR_BACKEND", BackendGemini),
		GeminiAPIKey:      getAPIKey(),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTemperature: getEnvFloat("GEMINI_TEMPERATURE", 0.2),
		DetectionLanguage: getEnv("DETECTION_LANGUAGE", "Simplified Chinese"),
		InferenceURL:      getEnv("INFERENCE_URL", "http://localhost:5000/predict"),

		// Analysis
		AITimeout:            getEnvDuration("AI_TIMEOUT", 60*time.Second),
		AIRetryBackoffMax:    getEnvDuration("AI_RETRY_BACKOFF_MAX", 30*time.Second),
		MaxAnalysisDimension: getEnvInt("MAX_ANALYSIS_DIMENSION", 2048),
		AnalysisJPEGQuality:  getEnvInt("ANALYSIS_JPEG_QUALITY", 90),

		// Frame sampling
		FrameJPEGQuality: getEnvInt("FRAME_JPEG_QUALITY", 80),

		// Media
		MediaDir:       getEnv("MEDIA_DIR", os.TempDir()),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 50<<20)), // 50MB
		MaxSessions:    getEnvInt("MAX_SESSIONS", 64),

		// NATS
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		EventsSubject:      getEnv("EVENTS_SUBJECT", "detections.analysis"),

		// WebSocket
		WSWriteTimeout: getEnvDuration("WS_WRITE_TIMEOUT", 10*time.Second),
		WSPingInterval: getEnvDuration("WS_PING_INTERVAL", 30*time.Second),

		// Swagger Configuration
		SwaggerHost: getEnv("SWAGGER_HOST", "localhost"),
		SwaggerPort: getEnvInt("SWAGGER_PORT", 8000),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getAPIKey prefers GEMINI_API_KEY and falls back to the generic API_KEY
func getAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("API_KEY")
}
