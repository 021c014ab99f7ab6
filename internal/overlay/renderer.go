package overlay

import (
	"fmt"
	"math"

	"genai-yolo-go/internal/models"
)

// chipHeight is the pixel height reserved for a label chip above its box
const chipHeight = 16

// Geometry is the displayed size of the media the overlay sits on
type Geometry struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PixelRect is a box in display pixels
type PixelRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Chip is the text tag attached to a box
type Chip struct {
	Text string `json:"text"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	// Inside is set when there is no room above the box and the chip is drawn inside it
	Inside bool `json:"inside"`
}

// Annotation is the draw instruction for one detection
type Annotation struct {
	Index         int       `json:"index"`
	Label         string    `json:"label"`
	Confidence    float64   `json:"confidence"`
	ConfidencePct int       `json:"confidence_pct"`
	High          bool      `json:"high_confidence"`
	Color         string    `json:"color"`
	Hex           string    `json:"hex"`
	Box           Rect      `json:"box"`
	Pixels        PixelRect `json:"pixels"`
	Chip          Chip      `json:"chip"`
}

// Render turns detections into draw instructions, one per detection in input order.
// It has no side effects; callers re-render whenever the detection collection is replaced.
func Render(detections []models.DetectionObject, geom Geometry) []Annotation {
	annotations := make([]Annotation, 0, len(detections))

	for i, det := range detections {
		c := ColorFor(det.Label)
		box := MapBox(det.Box)
		px := box.Pixels(geom.Width, geom.Height)
		pct := int(math.Round(det.Confidence * 100))

		chip := Chip{
			Text: fmt.Sprintf("%s %d%%", det.Label, pct),
			X:    px.Min.X,
			Y:    px.Min.Y - chipHeight,
		}
		if chip.Y < 0 {
			chip.Y = px.Min.Y
			chip.Inside = true
		}

		annotations = append(annotations, Annotation{
			Index:         i,
			Label:         det.Label,
			Confidence:    det.Confidence,
			ConfidencePct: pct,
			High:          det.IsHighConfidence(),
			Color:         c.CSS(),
			Hex:           c.Hex(),
			Box:           box,
			Pixels: PixelRect{
				X:      px.Min.X,
				Y:      px.Min.Y,
				Width:  px.Dx(),
				Height: px.Dy(),
			},
			Chip: chip,
		})
	}

	return annotations
}
