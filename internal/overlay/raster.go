package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"genai-yolo-go/internal/models"
)

const (
	boxThickness = 3
	glyphWidth   = 7
	chipPadding  = 3
)

var chipTextColor = color.RGBA{0, 0, 0, 255}

// Rasterize draws the overlay for detections onto a copy of img.
// Geometry is the intrinsic size of img.
func Rasterize(img image.Image, detections []models.DetectionObject) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	annotations := Render(detections, Geometry{Width: bounds.Dx(), Height: bounds.Dy()})
	for _, a := range annotations {
		c := ColorFor(a.Label).RGBA()
		drawBox(rgba, image.Rect(a.Pixels.X, a.Pixels.Y, a.Pixels.X+a.Pixels.Width, a.Pixels.Y+a.Pixels.Height), c)
		drawChip(rgba, a.Chip, c)
	}

	return rgba
}

// AnnotateImage decodes a JPEG, PNG or WebP still, draws the overlay and re-encodes it as JPEG
func AnnotateImage(data []byte, detections []models.DetectionObject, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode still: %w", err)
	}

	annotated := Rasterize(img, detections)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, annotated, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode annotated still: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBox strokes r with the box thickness, clipped to the image
func drawBox(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+boxThickness),
		image.Rect(r.Min.X, r.Max.Y-boxThickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+boxThickness, r.Max.Y),
		image.Rect(r.Max.X-boxThickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		e = e.Intersect(r).Intersect(img.Bounds())
		if e.Empty() {
			continue
		}
		draw.Draw(img, e, src, image.Point{}, draw.Src)
	}
}

// drawChip fills the label background with the box color and writes the text on it.
// basicfont only carries ASCII glyphs, other runes are skipped by the drawer.
func drawChip(img *image.RGBA, chip Chip, c color.RGBA) {
	width := len([]rune(chip.Text))*glyphWidth + 2*chipPadding
	bg := image.Rect(chip.X, chip.Y, chip.X+width, chip.Y+chipHeight).Intersect(img.Bounds())
	if !bg.Empty() {
		draw.Draw(img, bg, image.NewUniform(c), image.Point{}, draw.Src)
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(chipTextColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(chip.X + chipPadding), Y: fixed.I(chip.Y + chipHeight - chipPadding - 1)},
	}
	d.DrawString(chip.Text)
}
