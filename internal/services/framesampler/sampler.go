package framesampler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/logging"
	"genai-yolo-go/internal/models"
)

// ErrNoFrame is returned when no decodable frame exists at the requested position
var ErrNoFrame = errors.New("no decodable frame at position")

// Sampler grabs single frames from video files with OpenCV
type Sampler struct {
	quality int
	logger  zerolog.Logger
}

func NewSampler(cfg *config.Config) *Sampler {
	return &Sampler{
		quality: cfg.FrameJPEGQuality,
		logger:  logging.NewServiceLogger(cfg, "framesampler"),
	}
}

// Capture seeks to positionMs in the video at source and returns that frame
// as a JPEG at the video's intrinsic resolution.
func (s *Sampler) Capture(ctx context.Context, source string, positionMs int64) (models.Still, error) {
	if err := ctx.Err(); err != nil {
		return models.Still{}, err
	}
	if positionMs < 0 {
		positionMs = 0
	}

	capture, err := gocv.VideoCaptureFile(source)
	if err != nil {
		return models.Still{}, fmt.Errorf("failed to open video %s: %w", source, err)
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return models.Still{}, fmt.Errorf("video %s could not be opened", source)
	}

	capture.Set(gocv.VideoCapturePosMsec, float64(positionMs))

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := capture.Read(&mat); !ok || mat.Empty() {
		s.logger.Debug().Str("source", source).Int64("position_ms", positionMs).Msg("No frame at position")
		return models.Still{}, ErrNoFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, s.quality})
	if err != nil {
		return models.Still{}, fmt.Errorf("failed to encode frame as JPEG: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory that is freed on Close
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	s.logger.Debug().
		Str("source", source).
		Int64("position_ms", positionMs).
		Int("width", mat.Cols()).
		Int("height", mat.Rows()).
		Int("bytes", len(data)).
		Msg("Frame captured")

	return models.Still{
		Data:   data,
		MIME:   "image/jpeg",
		Width:  mat.Cols(),
		Height: mat.Rows(),
	}, nil
}
