package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/logging"
	"genai-yolo-go/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
	ErrManagerShutdown = errors.New("session manager is shutting down")
)

// Manager owns all live sessions
type Manager struct {
	cfg       *config.Config
	analyzer  Analyzer
	sampler   FrameSampler
	opener    HandleOpener
	publisher models.MessagePublisher
	logger    zerolog.Logger

	sessions map[string]*Session
	mutex    sync.RWMutex
	stopped  bool
}

// NewManager creates a session manager. publisher may be nil when events are disabled.
func NewManager(cfg *config.Config, analyzer Analyzer, sampler FrameSampler, opener HandleOpener, publisher models.MessagePublisher) *Manager {
	return &Manager{
		cfg:       cfg,
		analyzer:  analyzer,
		sampler:   sampler,
		opener:    opener,
		publisher: publisher,
		logger:    logging.NewServiceLogger(cfg, "sessions"),
		sessions:  make(map[string]*Session),
	}
}

// Create starts a new empty session
func (m *Manager) Create() (*Session, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.stopped {
		return nil, ErrManagerShutdown
	}
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		return nil, fmt.Errorf("%w (%d)", ErrTooManySessions, m.cfg.MaxSessions)
	}

	id := uuid.NewString()
	s := New(Options{
		ID:       id,
		Analyzer: m.analyzer,
		Sampler:  m.sampler,
		Opener:   m.opener,
		Logger:   logging.WithSession(m.logger, id),
		OnCycle:  m.publishEvent,
	})
	m.sessions[id] = s

	m.logger.Info().Str("session_id", id).Int("sessions", len(m.sessions)).Msg("Session created")
	return s, nil
}

// Get looks up a session by id
func (m *Manager) Get(id string) (*Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes and forgets a session
func (m *Manager) Remove(id string) error {
	m.mutex.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mutex.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	s.Close()
	m.logger.Info().Str("session_id", id).Msg("Session removed")
	return nil
}

// List returns snapshots of all sessions, oldest first
func (m *Manager) List() []models.Snapshot {
	m.mutex.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mutex.RUnlock()

	snaps := make([]models.Snapshot, 0, len(sessions))
	for _, s := range sessions {
		snaps = append(snaps, s.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].SessionID < snaps[j].SessionID
		}
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every session, giving up when ctx expires
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mutex.Lock()
	m.stopped = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mutex.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close()
		}(s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info().Int("sessions", len(sessions)).Msg("All sessions closed")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out closing sessions: %w", ctx.Err())
	}
}

func (m *Manager) publishEvent(event models.AnalysisEvent) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(m.cfg.EventsSubject, event); err != nil {
		m.logger.Warn().Err(err).Str("session_id", event.SessionID).Msg("Failed to publish analysis event")
	}
}
