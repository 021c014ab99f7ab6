package media

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/models"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestValidateAcceptsImage(t *testing.T) {
	m, err := Validate(pngBytes(t), "/tmp/uploads/photo.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", m.MIME)
	assert.Equal(t, models.MediaKindImage, m.Kind)
	assert.Equal(t, "photo.png", m.Filename)
}

func TestValidateIgnoresFilenameExtension(t *testing.T) {
	m, err := Validate(pngBytes(t), "disguised.mp4")
	require.NoError(t, err)
	assert.Equal(t, models.MediaKindImage, m.Kind)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("hello, this is plain text")},
		{"pdf", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n")},
		{"gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.data, "upload")
			require.Error(t, err)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestStoreOpenRelease(t *testing.T) {
	cfg := &config.Config{WorkerID: "test", MediaDir: t.TempDir()}
	store, err := NewStore(cfg)
	require.NoError(t, err)

	h, err := store.Open(models.Media{Data: []byte("payload"), MIME: "video/mp4"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), store.Live())
	assert.Equal(t, ".mp4", h.Path()[len(h.Path())-4:])

	data, err := os.ReadFile(h.Path())
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, h.Release())
	require.NoError(t, h.Release(), "release is idempotent")
	assert.Equal(t, int64(0), store.Live())

	_, err = os.Stat(h.Path())
	assert.True(t, os.IsNotExist(err))
}
