package models

import (
	"sort"
	"time"
)

// NormalizedScale is the fixed coordinate range boxes are expressed on,
// independent of the media's pixel resolution.
const NormalizedScale = 1000

// HighConfidence is the threshold above which a detection is flagged as high confidence
const HighConfidence = 0.8

// BoundingBox is a normalized box on the 0-1000 scale in y/x ordering.
type BoundingBox struct {
	YMin int `json:"ymin"`
	XMin int `json:"xmin"`
	YMax int `json:"ymax"`
	XMax int `json:"xmax"`
}

// DetectionObject is one labeled, confidence-scored box found in a still.
// A new analysis cycle replaces the whole collection; entries are never mutated.
type DetectionObject struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box_2d"`
}

// IsHighConfidence reports whether the detection is above HighConfidence
func (d DetectionObject) IsHighConfidence() bool {
	return d.Confidence > HighConfidence
}

// LabelCount is the number of detections sharing a label
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DetectionSummary aggregates a detection collection for display
type DetectionSummary struct {
	Total          int          `json:"total"`
	Categories     int          `json:"categories"`
	HighConfidence int          `json:"high_confidence"`
	Labels         []LabelCount `json:"labels"`
}

// Summarize groups detections by label. Labels are ordered by count, then name.
func Summarize(detections []DetectionObject) DetectionSummary {
	counts := make(map[string]int)
	summary := DetectionSummary{Total: len(detections)}

	for _, det := range detections {
		counts[det.Label]++
		if det.IsHighConfidence() {
			summary.HighConfidence++
		}
	}

	summary.Categories = len(counts)
	summary.Labels = make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		summary.Labels = append(summary.Labels, LabelCount{Label: label, Count: count})
	}
	sort.Slice(summary.Labels, func(i, j int) bool {
		if summary.Labels[i].Count != summary.Labels[j].Count {
			return summary.Labels[i].Count > summary.Labels[j].Count
		}
		return summary.Labels[i].Label < summary.Labels[j].Label
	})

	return summary
}

// Still is an encoded still image submitted for analysis
type Still struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// AnalysisEvent is published for every analysis cycle whose result was applied
type AnalysisEvent struct {
	SessionID   string            `json:"session_id"`
	MediaKind   MediaKind         `json:"media_kind"`
	Filename    string            `json:"filename,omitempty"`
	Succeeded   bool              `json:"succeeded"`
	Error       string            `json:"error,omitempty"`
	Detections  []DetectionObject `json:"detections"`
	Summary     DetectionSummary  `json:"summary"`
	Duration    time.Duration     `json:"duration"`
	CompletedAt time.Time         `json:"completed_at"`
}

// MessagePublisher interface for publishing analysis events
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}
