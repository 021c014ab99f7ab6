package helpers

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genai-yolo-go/internal/models"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareStillWithinBounds(t *testing.T) {
	data := encodePNG(t, 64, 32)

	out, err := PrepareStill(models.Still{Data: data, MIME: "image/png"}, 128, 90)
	require.NoError(t, err)

	assert.Equal(t, data, out.Data, "small stills pass through unchanged")
	assert.Equal(t, "image/png", out.MIME)
	assert.Equal(t, 64, out.Width)
	assert.Equal(t, 32, out.Height)
}

func TestPrepareStillDownscales(t *testing.T) {
	data := encodePNG(t, 400, 200)

	out, err := PrepareStill(models.Still{Data: data, MIME: "image/png"}, 100, 90)
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", out.MIME)
	assert.True(t, isJPEGData(out.Data))
	assert.Equal(t, 100, out.Width)
	assert.Equal(t, 50, out.Height)

	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestPrepareStillNoLimit(t *testing.T) {
	data := encodePNG(t, 400, 200)
	out, err := PrepareStill(models.Still{Data: data, MIME: "image/png"}, 0, 90)
	require.NoError(t, err)
	assert.Equal(t, data, out.Data)
}

func TestPrepareStillErrors(t *testing.T) {
	_, err := PrepareStill(models.Still{}, 100, 90)
	assert.Error(t, err)

	_, err = PrepareStill(models.Still{Data: []byte("garbage")}, 100, 90)
	assert.Error(t, err)
}
