// Package app runs the live pipeline that pumps frames from a pose service
// into a rep counting session.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/internal/session"
)

// ErrRunning is returned by Start while a pipeline is active.
var ErrRunning = errors.New("pipeline already running")

// ErrNotRunning is returned by Stop when no pipeline is active.
var ErrNotRunning = errors.New("pipeline not running")

// Config holds configuration options for the application.
type Config struct {
	Sessions *session.Manager
	// OpenSource connects to the pose service; called once per Start.
	OpenSource func() (pose.Source, error)
	Logger     *slog.Logger
}

// CommandOpener returns an OpenSource function that spawns the given pose-service command.
func CommandOpener(name string, args ...string) func() (pose.Source, error) {
	return func() (pose.Source, error) {
		return pose.NewCommandSource(name, args...)
	}
}

// App owns at most one live pipeline at a time.
type App struct {
	config  Config
	log     *slog.Logger
	enabled bool
	mu      sync.RWMutex
	run     *pipeline
}

type pipeline struct {
	session *session.Session
	source  pose.Source
	cancel  context.CancelFunc
	done    chan struct{}
	frames  int
	err     error
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		config:  config,
		log:     logger,
		enabled: true,
	}
}

// SetEnabled pauses or resumes counting. Frames read while paused are dropped.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frames are currently fed to the session.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Start opens the pose source, creates a session and begins feeding it.
// A pipeline whose source ended on its own stays current until Stop, so its
// session and summary remain reachable; Start returns ErrRunning until then.
// Watch Done to learn when the source has ended.
func (a *App) Start(opts session.Options) (*session.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.run != nil {
		return nil, ErrRunning
	}

	src, err := a.config.OpenSource()
	if err != nil {
		return nil, fmt.Errorf("open pose source: %w", err)
	}
	sess, err := a.config.Sessions.Create(opts)
	if err != nil {
		src.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &pipeline{
		session: sess,
		source:  src,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	a.run = p
	go a.runPipeline(ctx, p)

	a.log.Info("live pipeline started", "session", sess.ID())
	return sess, nil
}

// Stop halts the pipeline, ends its session and returns the session summary.
func (a *App) Stop() (session.Summary, error) {
	a.mu.Lock()
	p := a.run
	a.run = nil
	a.mu.Unlock()

	if p == nil {
		return session.Summary{}, ErrNotRunning
	}

	p.cancel()
	if err := p.source.Close(); err != nil {
		a.log.Warn("error closing pose source", "error", err)
	}
	<-p.done
	if p.err != nil {
		a.log.Warn("live pipeline ended with error", "session", p.session.ID(), "error", p.err)
	}

	summary, err := a.config.Sessions.Delete(p.session.ID())
	if errors.Is(err, session.ErrNotFound) {
		// Deleted over the API while running.
		return p.session.Summary(), nil
	}
	if err != nil {
		return session.Summary{}, err
	}

	a.log.Info("live pipeline stopped", "session", p.session.ID(), "frames", p.frames, "reps", summary.Reps)
	return summary, nil
}

// Session returns the session of the running pipeline, or nil.
func (a *App) Session() *session.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.run == nil {
		return nil
	}
	return a.run.session
}

// Done returns a channel closed when the running pipeline ends on its own
// or is stopped. It is nil when no pipeline is running.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.run == nil {
		return nil
	}
	return a.run.done
}
