package media

import (
	"fmt"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"genai-yolo-go/internal/models"
)

// AllowedMIMETypes are the media types accepted at the upload boundary
var AllowedMIMETypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"video/mp4",
	"video/webm",
}

// ValidationError reports media rejected before it reaches a session
type ValidationError struct {
	Detected string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Detected != "" {
		return fmt.Sprintf("unsupported media type %q: %s", e.Detected, e.Reason)
	}
	return "invalid media: " + e.Reason
}

// Validate sniffs the blob's content type and accepts it only if it is on the allow list.
// The declared type from the client is not trusted.
func Validate(data []byte, filename string) (models.Media, error) {
	if len(data) == 0 {
		return models.Media{}, &ValidationError{Reason: "empty file"}
	}

	detected := mimetype.Detect(data)
	mime, ok := allowed(detected)
	if !ok {
		return models.Media{}, &ValidationError{
			Detected: detected.String(),
			Reason:   "only JPEG, PNG, WebP images and MP4, WebM videos are supported",
		}
	}

	return models.Media{
		Data:     data,
		MIME:     mime,
		Kind:     models.MediaKindFromMIME(mime),
		Filename: filepath.Base(filename),
	}, nil
}

// allowed walks the detected type and its parents looking for an allowed MIME
func allowed(detected *mimetype.MIME) (string, bool) {
	for m := detected; m != nil; m = m.Parent() {
		for _, a := range AllowedMIMETypes {
			if m.Is(a) {
				return a, true
			}
		}
	}
	return "", false
}
