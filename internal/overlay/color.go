package overlay

import (
	"fmt"
	"image/color"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	labelSaturation = 0.70
	labelLightness  = 0.60
)

// Color is a label color in HSL space
type Color struct {
	Hue        int     `json:"hue"`
	Saturation float64 `json:"saturation"`
	Lightness  float64 `json:"lightness"`
}

// ColorFor derives a stable color from a label. The hash runs over UTF-16
// code units with 32-bit wrapping arithmetic so the hue matches browser clients.
// Distinct labels may collide.
func ColorFor(label string) Color {
	var hash int32
	for _, unit := range utf16.Encode([]rune(label)) {
		hash = int32(unit) + ((hash << 5) - hash)
	}

	hue := hash % 360
	if hue < 0 {
		hue = -hue
	}

	return Color{
		Hue:        int(hue),
		Saturation: labelSaturation,
		Lightness:  labelLightness,
	}
}

// CSS renders the color as a CSS hsl() value
func (c Color) CSS() string {
	return fmt.Sprintf("hsl(%d, %.0f%%, %.0f%%)", c.Hue, c.Saturation*100, c.Lightness*100)
}

// Hex renders the color as #rrggbb
func (c Color) Hex() string {
	return c.colorful().Clamped().Hex()
}

// RGBA converts the color for raster drawing
func (c Color) RGBA() color.RGBA {
	r, g, b := c.colorful().Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func (c Color) colorful() colorful.Color {
	return colorful.Hsl(float64(c.Hue), c.Saturation, c.Lightness)
}
