package helpers

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"

	"genai-yolo-go/internal/models"
)

// isJPEGData checks if the byte slice contains JPEG data by checking magic bytes
func isJPEGData(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	// JPEG magic bytes: FF D8
	return data[0] == 0xFF && data[1] == 0xD8
}

// StillDimensions reads the intrinsic size of an encoded still without decoding the pixels
func StillDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// PrepareStill fills in the still's dimensions and downscales it to fit within
// maxDim on its longest side. Stills already within bounds are returned untouched.
// Detections are normalized, so the box coordinates stay valid for the original.
func PrepareStill(still models.Still, maxDim, quality int) (models.Still, error) {
	if len(still.Data) == 0 {
		return still, fmt.Errorf("empty still")
	}

	width, height, err := StillDimensions(still.Data)
	if err != nil {
		return still, err
	}
	still.Width, still.Height = width, height

	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return still, nil
	}

	img, _, err := image.Decode(bytes.NewReader(still.Data))
	if err != nil {
		return still, fmt.Errorf("failed to decode still: %w", err)
	}

	// Thumbnail keeps the aspect ratio inside the maxDim box
	resized := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return still, fmt.Errorf("failed to encode downscaled still: %w", err)
	}

	bounds := resized.Bounds()
	log.Debug().
		Int("original_width", width).
		Int("original_height", height).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("original_size", len(still.Data)).
		Int("compressed_size", buf.Len()).
		Bool("source_was_jpeg", isJPEGData(still.Data)).
		Msg("Downscaled oversized still before analysis")

	return models.Still{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
