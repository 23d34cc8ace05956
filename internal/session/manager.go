// Package session owns live rep-counting sessions: one detector per session,
// serialized frame delivery, summaries and event fan-out.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/repsense/internal/hook"
	"github.com/ayusman/repsense/internal/metrics"
	"github.com/ayusman/repsense/internal/rep"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("session not found")

// Notifier receives session lifecycle and repetition events.
type Notifier interface {
	Notify(ev hook.Event)
}

// EngineOverrides replace stock tuning values on detectors built from
// defaults. Zero fields keep the stock value.
type EngineOverrides struct {
	Alpha            float64
	MinRepDurationMs int64
	MinVisibility    float64
}

func (o EngineOverrides) apply(cfg *rep.Config) {
	if o.Alpha > 0 {
		cfg.Alpha = o.Alpha
	}
	if o.MinRepDurationMs > 0 {
		cfg.MinRepDurationMs = o.MinRepDurationMs
	}
	if o.MinVisibility > 0 {
		cfg.MinVisibility = o.MinVisibility
	}
}

// Config holds the Manager dependencies. Every field is optional.
type Config struct {
	Overrides EngineOverrides
	Logger    *slog.Logger
	Metrics   *metrics.Manager
	Notifier  Notifier
}

// Options selects what a new session tracks.
type Options struct {
	Exercise rep.Exercise
	Side     rep.Side
	// Config replaces the stock tuning entirely when set.
	Config *rep.Config
	// ProfileID records which stored profile produced Config.
	ProfileID string
}

// Manager creates and tracks sessions.
type Manager struct {
	overrides EngineOverrides
	logger    *slog.Logger
	metrics   *metrics.Manager
	notifier  Notifier

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty Manager.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		overrides: cfg.Overrides,
		logger:    logger,
		metrics:   cfg.Metrics,
		notifier:  cfg.Notifier,
		sessions:  make(map[string]*Session),
	}
}

// ResolveConfig returns the detector tuning a session created with opts would use.
func (m *Manager) ResolveConfig(opts Options) (rep.Config, error) {
	if opts.Config != nil {
		cfg := *opts.Config
		if cfg.Side == "" {
			cfg.Side = rep.Left
		}
		return cfg, cfg.Validate()
	}

	cfg, err := rep.DefaultConfig(opts.Exercise, opts.Side)
	if err != nil {
		return rep.Config{}, err
	}
	m.overrides.apply(&cfg)
	return cfg, cfg.Validate()
}

// Create starts a new session with a fresh detector.
func (m *Manager) Create(opts Options) (*Session, error) {
	cfg, err := m.ResolveConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("resolve detector config: %w", err)
	}
	det, err := rep.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create detector: %w", err)
	}

	s := &Session{
		id:          uuid.New().String(),
		profileID:   opts.ProfileID,
		createdAt:   time.Now().UTC(),
		detector:    det,
		manager:     m,
		subscribers: make(map[chan rep.Output]struct{}),
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.GaugeSessions.Set(float64(count))
	}
	m.logger.Info("session created",
		"session", s.id, "exercise", cfg.Exercise, "side", cfg.Side, "profile", opts.ProfileID)
	m.notify(s.event(hook.EventSessionStarted, nil))

	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns all sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].createdAt.Equal(list[j].createdAt) {
			return list[i].id < list[j].id
		}
		return list[i].createdAt.Before(list[j].createdAt)
	})
	return list
}

// Delete ends a session and returns its final summary.
func (m *Manager) Delete(id string) (Summary, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return Summary{}, ErrNotFound
	}
	if m.metrics != nil {
		m.metrics.GaugeSessions.Set(float64(count))
	}

	summary := s.close()
	m.logger.Info("session ended",
		"session", id, "reps", summary.Reps, "aborted", summary.AbortedReps, "discarded", summary.DiscardedReps)
	ev := s.event(hook.EventSessionEnded, summary)
	ev.RepCount = summary.Reps
	m.notify(ev)

	return summary, nil
}

// Close ends every session.
func (m *Manager) Close() {
	for _, s := range m.List() {
		_, _ = m.Delete(s.ID())
	}
}

func (m *Manager) notify(ev hook.Event) {
	if m.notifier != nil {
		m.notifier.Notify(ev)
	}
}
