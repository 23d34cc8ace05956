package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/repsense/internal/hook"
	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/internal/rep"
)

// ErrClosed is returned by operations on a deleted session.
var ErrClosed = errors.New("session closed")

// ErrInvalidScope is returned by Reset for an unknown scope.
var ErrInvalidScope = errors.New("invalid reset scope")

// Scope selects how much detector state Reset clears.
type Scope string

const (
	// ScopePhase restarts the current repetition and keeps the count.
	ScopePhase Scope = "phase"
	// ScopeAll also clears the count and the session statistics.
	ScopeAll Scope = "all"
)

// subscriberBuffer is how many outputs a slow subscriber may lag before frames are dropped for it.
const subscriberBuffer = 32

// Info is a point-in-time view of a session.
type Info struct {
	ID        string       `json:"id"`
	Exercise  rep.Exercise `json:"exercise"`
	Side      rep.Side     `json:"side"`
	ProfileID string       `json:"profile_id,omitempty"`
	Phase     rep.Phase    `json:"phase"`
	RepCount  int          `json:"rep_count"`
	Frames    int          `json:"frames"`
	Config    rep.Config   `json:"config"`
	CreatedAt time.Time    `json:"created_at"`
}

// Summary aggregates the accepted repetitions of a session.
type Summary struct {
	SessionID       string         `json:"session_id"`
	Exercise        rep.Exercise   `json:"exercise"`
	Side            rep.Side       `json:"side"`
	Frames          int            `json:"frames"`
	MissingFrames   int            `json:"missing_frames"`
	Reps            int            `json:"reps"`
	AbortedReps     int            `json:"aborted_reps"`
	DiscardedReps   int            `json:"discarded_reps"`
	MeanFormScore   float64        `json:"mean_form_score"`
	StdDevFormScore float64        `json:"stddev_form_score"`
	BestFormScore   int            `json:"best_form_score"`
	MeanROM         float64        `json:"mean_rom"`
	StdDevROM       float64        `json:"stddev_rom"`
	MeanDurationMs  float64        `json:"mean_duration_ms"`
	History         []rep.RepStats `json:"history"`
}

// Session is one live exercise set. It is safe for concurrent use.
type Session struct {
	id        string
	profileID string
	createdAt time.Time
	manager   *Manager

	mu          sync.Mutex
	detector    *rep.Detector
	closed      bool
	frames      int
	missing     int
	history     []rep.RepStats
	last        *rep.Output
	subscribers map[chan rep.Output]struct{}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Feed runs one frame through the detector and broadcasts the output.
func (s *Session) Feed(frame pose.Frame) (rep.Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return rep.Output{}, ErrClosed
	}

	det := s.detector
	beforeReps, beforeAborted, beforeDiscarded := det.RepCount(), det.Aborted(), det.Discarded()

	out := det.Update(frame)
	s.frames++
	if out.CurrentAngle == nil {
		s.missing++
	}

	exercise := string(det.Exercise())
	m := s.manager.metrics
	if m != nil {
		m.CounterFrames.WithLabelValues(exercise).Inc()
		if out.CurrentAngle == nil {
			m.CounterFramesMissing.WithLabelValues(exercise).Inc()
		}
		if d := det.Aborted() - beforeAborted; d > 0 {
			m.CounterRepsAborted.WithLabelValues(exercise).Add(float64(d))
		}
		if d := det.Discarded() - beforeDiscarded; d > 0 {
			m.CounterRepsDiscarded.WithLabelValues(exercise).Add(float64(d))
		}
	}

	if det.RepCount() > beforeReps && out.LastRep != nil {
		s.recordRep(*out.LastRep, out.RepCount)
	}

	s.last = &out
	for ch := range s.subscribers {
		select {
		case ch <- out:
		default:
		}
	}

	return out, nil
}

// recordRep must be called with s.mu held.
func (s *Session) recordRep(stats rep.RepStats, count int) {
	s.history = append(s.history, stats)

	exercise := string(s.detector.Exercise())
	if m := s.manager.metrics; m != nil {
		m.CounterReps.WithLabelValues(exercise).Inc()
		m.HistFormScore.WithLabelValues(exercise).Observe(float64(stats.FormScore))
		m.HistRepDuration.WithLabelValues(exercise).Observe(float64(stats.DurationMs) / 1000)
	}

	s.manager.logger.Info("rep completed",
		"session", s.id, "exercise", exercise, "count", count,
		"score", stats.FormScore, "min_angle", stats.MinAngle, "duration_ms", stats.DurationMs)

	ev := s.event(hook.EventRepCompleted, stats)
	ev.RepCount = count
	ev.FormScore = stats.FormScore
	s.manager.notify(ev)
}

// Reset clears detector state according to scope.
func (s *Session) Reset(scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	switch scope {
	case ScopePhase, "":
		s.detector.ResetPhase()
	case ScopeAll:
		s.detector.ResetAll()
		s.history = nil
		s.frames = 0
		s.missing = 0
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	s.last = nil

	s.manager.logger.Debug("session reset", "session", s.id, "scope", scope)
	return nil
}

// Info returns the current state of the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.detector.Config()
	return Info{
		ID:        s.id,
		Exercise:  cfg.Exercise,
		Side:      cfg.Side,
		ProfileID: s.profileID,
		Phase:     s.detector.Phase(),
		RepCount:  s.detector.RepCount(),
		Frames:    s.frames,
		Config:    cfg,
		CreatedAt: s.createdAt,
	}
}

// LastOutput returns the most recent detector output, if any.
func (s *Session) LastOutput() (rep.Output, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return rep.Output{}, false
	}
	return *s.last, true
}

// Summary computes statistics over the accepted repetitions.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Session) summaryLocked() Summary {
	cfg := s.detector.Config()
	sum := Summary{
		SessionID:     s.id,
		Exercise:      cfg.Exercise,
		Side:          cfg.Side,
		Frames:        s.frames,
		MissingFrames: s.missing,
		Reps:          s.detector.RepCount(),
		AbortedReps:   s.detector.Aborted(),
		DiscardedReps: s.detector.Discarded(),
		History:       append([]rep.RepStats(nil), s.history...),
	}
	if len(s.history) == 0 {
		return sum
	}

	scores := make([]float64, len(s.history))
	roms := make([]float64, len(s.history))
	durations := make([]float64, len(s.history))
	for i, r := range s.history {
		scores[i] = float64(r.FormScore)
		roms[i] = r.MaxAngle - r.MinAngle
		durations[i] = float64(r.DurationMs)
		if r.FormScore > sum.BestFormScore {
			sum.BestFormScore = r.FormScore
		}
	}

	sum.MeanFormScore, sum.StdDevFormScore = meanStdDev(scores)
	sum.MeanROM, sum.StdDevROM = meanStdDev(roms)
	sum.MeanDurationMs = stat.Mean(durations, nil)
	return sum
}

// meanStdDev returns the mean and sample standard deviation; the deviation
// of fewer than two values is 0.
func meanStdDev(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}

// Subscribe returns a channel receiving every subsequent output and a
// function that ends the subscription. Outputs are dropped for a
// subscriber whose buffer is full. The channel is closed when the
// subscription ends or the session is deleted.
func (s *Session) Subscribe() (<-chan rep.Output, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan rep.Output, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subscribers[ch]; ok {
				delete(s.subscribers, ch)
				close(ch)
			}
		})
	}
}

func (s *Session) close() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	return s.summaryLocked()
}

func (s *Session) event(eventType string, data any) hook.Event {
	cfg := s.detector.Config()
	ev := hook.Event{
		Type:      eventType,
		SessionID: s.id,
		Exercise:  string(cfg.Exercise),
		Side:      string(cfg.Side),
		Time:      time.Now().UTC(),
	}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			ev.Data = raw
		}
	}
	return ev
}
