package models

import (
	"strings"
	"time"
)

// MediaKind is the kind of media held by a session
type MediaKind string

const (
	MediaKindNone  MediaKind = "none"
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaKindFromMIME maps a MIME type to the media kind it represents
func MediaKindFromMIME(mime string) MediaKind {
	switch {
	case strings.HasPrefix(mime, "video/"):
		return MediaKindVideo
	case strings.HasPrefix(mime, "image/"):
		return MediaKindImage
	default:
		return MediaKindNone
	}
}

// Phase is the lifecycle position of a session
type Phase string

const (
	PhaseEmpty     Phase = "empty"
	PhaseLoaded    Phase = "loaded"
	PhaseAnalyzing Phase = "analyzing"
	PhaseReady     Phase = "ready"
	PhaseError     Phase = "error"
)

// AnalysisState is the coarse analysis status exposed to clients
type AnalysisState string

const (
	AnalysisIdle      AnalysisState = "idle"
	AnalysisAnalyzing AnalysisState = "analyzing"
	AnalysisError     AnalysisState = "error"
)

// AnalysisState derives the coarse analysis status from the phase
func (p Phase) AnalysisState() AnalysisState {
	switch p {
	case PhaseAnalyzing:
		return AnalysisAnalyzing
	case PhaseError:
		return AnalysisError
	default:
		return AnalysisIdle
	}
}

// Media is a validated blob that passed the input boundary
type Media struct {
	Data     []byte
	MIME     string
	Kind     MediaKind
	Filename string
}

// DisplayHandle is a transient resource derived from the source media for rendering.
// Release must be safe to call more than once.
type DisplayHandle interface {
	Path() string
	Release() error
}

// Snapshot is a read-only copy of a session's state
type Snapshot struct {
	SessionID     string            `json:"session_id"`
	Revision      uint64            `json:"revision"`
	Phase         Phase             `json:"phase"`
	AnalysisState AnalysisState     `json:"analysis_state"`
	MediaKind     MediaKind         `json:"media_kind"`
	MIME          string            `json:"mime,omitempty"`
	Filename      string            `json:"filename,omitempty"`
	Detections    []DetectionObject `json:"detections"`
	Summary       DetectionSummary  `json:"summary"`
	LastError     string            `json:"last_error,omitempty"`
	ErrorDetail   string            `json:"error_detail,omitempty"`
	AnalyzedAt    *time.Time        `json:"analyzed_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
