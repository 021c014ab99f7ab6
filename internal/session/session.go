package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"genai-yolo-go/internal/models"
)

var (
	ErrNoMedia          = errors.New("no media selected")
	ErrAnalysisInFlight = errors.New("analysis already in progress")
	ErrNotVideo         = errors.New("frame capture requires a video")
	ErrMediaChanged     = errors.New("media changed while capturing frame")
	ErrNoResult         = errors.New("no analyzed still available")
	ErrClosed           = errors.New("session closed")
)

// User facing messages for failed cycles
const (
	imageFailureMessage = "Failed to detect objects. Please try again."
	frameFailureMessage = "Analysis failed for this frame."
)

// Analyzer runs object detection on a still
type Analyzer interface {
	Detect(ctx context.Context, still models.Still) ([]models.DetectionObject, error)
}

// FrameSampler captures a still from a video source at a playback position
type FrameSampler interface {
	Capture(ctx context.Context, source string, positionMs int64) (models.Still, error)
}

// HandleOpener derives a display handle from selected media
type HandleOpener interface {
	Open(m models.Media) (models.DisplayHandle, error)
}

// Options wires a session's collaborators
type Options struct {
	ID       string
	Analyzer Analyzer
	Sampler  FrameSampler
	Opener   HandleOpener
	Logger   zerolog.Logger
	// OnCycle is called after every analysis cycle whose result was applied
	OnCycle func(models.AnalysisEvent)
}

// Session owns one selected media item, its display handle and its detections.
// At most one analysis cycle is in flight; a cycle started before the latest
// Reset or SelectMedia never touches the session when it resolves.
type Session struct {
	id        string
	createdAt time.Time

	analyzer Analyzer
	sampler  FrameSampler
	opener   HandleOpener
	onCycle  func(models.AnalysisEvent)
	logger   zerolog.Logger

	mu          sync.Mutex
	generation  uint64
	revision    uint64
	phase       models.Phase
	media       models.Media
	handle      models.DisplayHandle
	detections  []models.DetectionObject
	hasResult   bool
	lastError   string
	errorDetail string
	lastStill   *models.Still
	analyzedAt  time.Time
	closed      bool

	observers    map[int]func(models.Snapshot)
	nextObserver int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an empty session
func New(opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:         opts.ID,
		createdAt:  time.Now(),
		analyzer:   opts.Analyzer,
		sampler:    opts.Sampler,
		opener:     opts.Opener,
		onCycle:    opts.OnCycle,
		logger:     opts.Logger,
		phase:      models.PhaseEmpty,
		media:      models.Media{Kind: models.MediaKindNone},
		detections: []models.DetectionObject{},
		observers:  make(map[int]func(models.Snapshot)),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Session) ID() string {
	return s.id
}

// SelectMedia replaces the session's media. Prior detections and errors are cleared
// and images are analyzed immediately.
func (s *Session) SelectMedia(m models.Media) error {
	handle, err := s.opener.Open(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = handle.Release()
		return ErrClosed
	}

	previous := s.handle
	s.handle = handle
	s.generation++
	s.media = m
	s.clearResultsLocked()
	s.phase = models.PhaseLoaded

	if m.Kind == models.MediaKindImage {
		s.startCycleLocked(models.Still{Data: m.Data, MIME: m.MIME})
	}
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.releaseHandle(previous)

	s.logger.Info().
		Str("media_kind", string(m.Kind)).
		Str("mime", m.MIME).
		Str("filename", m.Filename).
		Int("bytes", len(m.Data)).
		Msg("Media selected")

	s.notify(snap)
	return nil
}

// RequestAnalysis starts a cycle for still. It is rejected while another cycle is
// in flight or when no media is selected; a rejection changes nothing.
func (s *Session) RequestAnalysis(still models.Still) error {
	s.mu.Lock()
	if err := s.checkCanAnalyzeLocked(); err != nil {
		s.mu.Unlock()
		return err
	}

	s.startCycleLocked(still)
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// CaptureFrame grabs the video frame at positionMs without analyzing it
func (s *Session) CaptureFrame(ctx context.Context, positionMs int64) (models.Still, error) {
	source, _, err := s.videoSource()
	if err != nil {
		return models.Still{}, err
	}
	return s.sampler.Capture(ctx, source, positionMs)
}

// AnalyzeFrame captures the frame at positionMs and submits it for analysis.
// No cycle is started if the frame cannot be decoded.
func (s *Session) AnalyzeFrame(ctx context.Context, positionMs int64) error {
	source, gen, err := s.videoSource()
	if err != nil {
		return err
	}

	s.mu.Lock()
	err = s.checkCanAnalyzeLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	still, err := s.sampler.Capture(ctx, source, positionMs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return ErrMediaChanged
	}
	if err := s.checkCanAnalyzeLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.startCycleLocked(still)
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug().Int64("position_ms", positionMs).Int("width", still.Width).Int("height", still.Height).Msg("Frame submitted for analysis")
	s.notify(snap)
	return nil
}

// DismissError clears the error notice, returning to Ready if a cycle ever succeeded
func (s *Session) DismissError() {
	s.mu.Lock()
	if s.phase != models.PhaseError {
		s.mu.Unlock()
		return
	}

	s.lastError = ""
	s.errorDetail = ""
	if s.hasResult {
		s.phase = models.PhaseReady
	} else {
		s.phase = models.PhaseLoaded
	}
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Reset releases the media and returns the session to Empty. Calling it again is a no-op.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.phase == models.PhaseEmpty && s.handle == nil {
		s.mu.Unlock()
		return
	}
	previous := s.resetLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.releaseHandle(previous)
	s.logger.Info().Msg("Session reset")
	s.notify(snap)
}

// Close releases the media, cancels outstanding cycles and waits for them to return
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	previous := s.resetLocked()
	s.observers = make(map[int]func(models.Snapshot))
	s.mu.Unlock()

	s.releaseHandle(previous)
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("Session closed")
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// MediaFile returns the path and MIME type of the current display handle
func (s *Session) MediaFile() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return "", "", ErrNoMedia
	}
	return s.handle.Path(), s.media.MIME, nil
}

// LastResult returns the still analyzed by the latest successful cycle and its detections
func (s *Session) LastResult() (models.Still, []models.DetectionObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastStill == nil {
		return models.Still{}, nil, ErrNoResult
	}
	return *s.lastStill, s.detections, nil
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn is called outside the session lock and must not block for long.
func (s *Session) Subscribe(fn func(models.Snapshot)) func() {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Session) checkCanAnalyzeLocked() error {
	switch {
	case s.closed:
		return ErrClosed
	case s.phase == models.PhaseEmpty:
		return ErrNoMedia
	case s.phase == models.PhaseAnalyzing:
		return ErrAnalysisInFlight
	}
	return nil
}

func (s *Session) videoSource() (string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return "", 0, ErrClosed
	case s.handle == nil:
		return "", 0, ErrNoMedia
	case s.media.Kind != models.MediaKindVideo:
		return "", 0, ErrNotVideo
	}
	return s.handle.Path(), s.generation, nil
}

// resetLocked detaches the handle and returns it for release outside the lock
func (s *Session) resetLocked() models.DisplayHandle {
	previous := s.handle
	s.handle = nil
	s.generation++
	s.media = models.Media{Kind: models.MediaKindNone}
	s.clearResultsLocked()
	s.phase = models.PhaseEmpty
	s.revision++
	return previous
}

func (s *Session) clearResultsLocked() {
	s.detections = []models.DetectionObject{}
	s.hasResult = false
	s.lastError = ""
	s.errorDetail = ""
	s.lastStill = nil
	s.analyzedAt = time.Time{}
}

// startCycleLocked moves to Analyzing and resolves the cycle on its own goroutine
func (s *Session) startCycleLocked(still models.Still) {
	s.phase = models.PhaseAnalyzing
	s.lastError = ""
	s.errorDetail = ""

	gen := s.generation
	kind := s.media.Kind
	s.wg.Add(1)
	go s.runCycle(gen, kind, still)
}

func (s *Session) runCycle(gen uint64, kind models.MediaKind, still models.Still) {
	defer s.wg.Done()

	start := time.Now()
	detections, err := s.analyzer.Detect(s.ctx, still)
	elapsed := time.Since(start)

	s.mu.Lock()
	if s.closed || s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug().Dur("elapsed", elapsed).Msg("Discarding result of superseded analysis")
		return
	}

	event := models.AnalysisEvent{
		SessionID:   s.id,
		MediaKind:   kind,
		Filename:    s.media.Filename,
		Duration:    elapsed,
		CompletedAt: time.Now(),
	}

	if err != nil {
		s.phase = models.PhaseError
		s.errorDetail = err.Error()
		if kind == models.MediaKindVideo {
			s.lastError = frameFailureMessage
		} else {
			s.lastError = imageFailureMessage
		}
		event.Error = err.Error()
		event.Detections = s.detections
	} else {
		fresh := make([]models.DetectionObject, len(detections))
		copy(fresh, detections)
		s.detections = fresh
		s.hasResult = true
		s.lastStill = &still
		s.analyzedAt = event.CompletedAt
		s.phase = models.PhaseReady
		event.Succeeded = true
		event.Detections = fresh
	}
	event.Summary = models.Summarize(event.Detections)
	s.revision++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn().Err(err).Dur("elapsed", elapsed).Msg("Analysis failed")
	} else {
		s.logger.Info().Int("detections", len(event.Detections)).Dur("elapsed", elapsed).Msg("Analysis completed")
	}

	s.notify(snap)
	if s.onCycle != nil {
		s.onCycle(event)
	}
}

func (s *Session) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		SessionID:     s.id,
		Revision:      s.revision,
		Phase:         s.phase,
		AnalysisState: s.phase.AnalysisState(),
		MediaKind:     s.media.Kind,
		MIME:          s.media.MIME,
		Filename:      s.media.Filename,
		Detections:    s.detections,
		Summary:       models.Summarize(s.detections),
		LastError:     s.lastError,
		ErrorDetail:   s.errorDetail,
		CreatedAt:     s.createdAt,
	}
	if !s.analyzedAt.IsZero() {
		t := s.analyzedAt
		snap.AnalyzedAt = &t
	}
	return snap
}

func (s *Session) notify(snap models.Snapshot) {
	s.mu.Lock()
	observers := make([]func(models.Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (s *Session) releaseHandle(h models.DisplayHandle) {
	if h == nil {
		return
	}
	if err := h.Release(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to release display handle")
	}
}
