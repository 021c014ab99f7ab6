package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	dets := []DetectionObject{
		{Label: "人", Confidence: 0.9},
		{Label: "汽车", Confidence: 0.5},
		{Label: "人", Confidence: 0.81},
		{Label: "狗", Confidence: 0.8},
	}

	s := Summarize(dets)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Categories)
	assert.Equal(t, 2, s.HighConfidence, "0.8 itself is not high confidence")
	assert.Equal(t, LabelCount{Label: "人", Count: 2}, s.Labels[0])
	assert.Len(t, s.Labels, 3)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Categories)
	assert.NotNil(t, s.Labels)
}

func TestMediaKindFromMIME(t *testing.T) {
	assert.Equal(t, MediaKindImage, MediaKindFromMIME("image/webp"))
	assert.Equal(t, MediaKindVideo, MediaKindFromMIME("video/mp4"))
	assert.Equal(t, MediaKindNone, MediaKindFromMIME("text/plain"))
}

func TestPhaseAnalysisState(t *testing.T) {
	assert.Equal(t, AnalysisAnalyzing, PhaseAnalyzing.AnalysisState())
	assert.Equal(t, AnalysisError, PhaseError.AnalysisState())
	assert.Equal(t, AnalysisIdle, PhaseReady.AnalysisState())
	assert.Equal(t, AnalysisIdle, PhaseEmpty.AnalysisState())
}
