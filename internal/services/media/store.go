package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/logging"
	"genai-yolo-go/internal/models"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// Store materializes media blobs as temporary files that can be served and decoded
type Store struct {
	dir    string
	live   atomic.Int64
	logger zerolog.Logger
}

func NewStore(cfg *config.Config) (*Store, error) {
	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir %s: %w", cfg.MediaDir, err)
	}
	return &Store{
		dir:    cfg.MediaDir,
		logger: logging.NewServiceLogger(cfg, "media"),
	}, nil
}

// Open writes the blob to a new temp file and returns a handle owning it
func (s *Store) Open(m models.Media) (models.DisplayHandle, error) {
	f, err := os.CreateTemp(s.dir, "media-*"+extensions[m.MIME])
	if err != nil {
		return nil, fmt.Errorf("failed to create media file: %w", err)
	}

	if _, err := f.Write(m.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close media file: %w", err)
	}

	s.live.Add(1)
	s.logger.Debug().Str("path", f.Name()).Int("bytes", len(m.Data)).Msg("Display handle opened")

	return &fileHandle{path: f.Name(), store: s}, nil
}

// Live returns the number of handles not yet released
func (s *Store) Live() int64 {
	return s.live.Load()
}

type fileHandle struct {
	path  string
	store *Store
	once  sync.Once
	err   error
}

func (h *fileHandle) Path() string {
	return h.path
}

// Release removes the backing file; later calls are no-ops returning the first result
func (h *fileHandle) Release() error {
	h.once.Do(func() {
		h.store.live.Add(-1)
		if err := os.Remove(h.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			h.err = fmt.Errorf("failed to remove media file: %w", err)
			h.store.logger.Warn().Err(err).Str("path", h.path).Msg("Display handle release failed")
			return
		}
		h.store.logger.Debug().Str("path", h.path).Msg("Display handle released")
	})
	return h.err
}
