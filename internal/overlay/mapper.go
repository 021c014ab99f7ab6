package overlay

import (
	"image"
	"math"

	"genai-yolo-go/internal/models"
)

// Rect is a box expressed as percentages of the displayed media
type Rect struct {
	TopPct    float64 `json:"top_pct"`
	LeftPct   float64 `json:"left_pct"`
	WidthPct  float64 `json:"width_pct"`
	HeightPct float64 `json:"height_pct"`
}

// MapBox converts a normalized 0-1000 box to percentage placement.
// Out of range coordinates are clamped and inverted extents collapse to zero,
// so every field stays within [0, 100].
func MapBox(box models.BoundingBox) Rect {
	ymin := clampCoord(box.YMin)
	xmin := clampCoord(box.XMin)
	ymax := clampCoord(box.YMax)
	xmax := clampCoord(box.XMax)

	return Rect{
		TopPct:    toPct(ymin),
		LeftPct:   toPct(xmin),
		WidthPct:  toPct(max(xmax-xmin, 0)),
		HeightPct: toPct(max(ymax-ymin, 0)),
	}
}

// Pixels projects the rect onto a displayed area of width x height pixels
func (r Rect) Pixels(width, height int) image.Rectangle {
	x0 := int(math.Round(r.LeftPct / 100 * float64(width)))
	y0 := int(math.Round(r.TopPct / 100 * float64(height)))
	x1 := int(math.Round((r.LeftPct + r.WidthPct) / 100 * float64(width)))
	y1 := int(math.Round((r.TopPct + r.HeightPct) / 100 * float64(height)))
	return image.Rect(x0, y0, x1, y1)
}

func clampCoord(v int) int {
	return min(max(v, 0), models.NormalizedScale)
}

func toPct(v int) float64 {
	return float64(v) / models.NormalizedScale * 100
}
