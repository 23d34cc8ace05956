package rep

import (
	"fmt"
	"math"

	"github.com/ayusman/repsense/internal/kinematics"
	"github.com/ayusman/repsense/internal/pose"
)

// Phase is the position of the detector within one repetition.
type Phase string

const (
	// PhaseReady is the top of the movement, waiting for a descent.
	PhaseReady Phase = "ready"
	// PhaseDown is the descent toward the bottom threshold.
	PhaseDown Phase = "down"
	// PhaseBottom holds once the bottom threshold is reached.
	PhaseBottom Phase = "bottom"
	// PhaseUp is the ascent back toward the top.
	PhaseUp Phase = "up"
)

// RepStats describes the most recently accepted repetition.
type RepStats struct {
	MinAngle   float64 `json:"min_angle"`
	MaxAngle   float64 `json:"max_angle"`
	FormScore  int     `json:"form_score"`
	DurationMs int64   `json:"duration_ms"`
}

// Output is the per-frame result of Detector.Update.
type Output struct {
	RepCount int    `json:"rep_count"`
	Feedback string `json:"feedback"`
	Phase    Phase  `json:"phase"`
	// CurrentAngle is the rounded smoothed angle, nil when landmarks were missing.
	CurrentAngle *int      `json:"current_angle,omitempty"`
	LastRep      *RepStats `json:"last_rep,omitempty"`
}

// Detector counts repetitions of one exercise on one side.
// It is not safe for concurrent use.
type Detector struct {
	cfg    Config
	joints joints

	phase     Phase
	repCount  int
	minAngle  float64
	smoother  *kinematics.Smoother
	startTs   int64
	lastRep   *RepStats
	aborted   int
	discarded int
}

// New returns a detector in the ready phase.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	j, err := jointsFor(cfg.Exercise, cfg.Side)
	if err != nil {
		return nil, fmt.Errorf("bind joints: %w", err)
	}

	return &Detector{
		cfg:      cfg,
		joints:   j,
		phase:    PhaseReady,
		minAngle: NeutralAngle,
		smoother: kinematics.NewSmoother(cfg.Alpha),
	}, nil
}

// Update advances the state machine by one frame.
func (d *Detector) Update(frame pose.Frame) Output {
	a, okA := frame.At(d.joints.a, d.cfg.MinVisibility)
	b, okB := frame.At(d.joints.b, d.cfg.MinVisibility)
	c, okC := frame.At(d.joints.c, d.cfg.MinVisibility)
	if !okA || !okB || !okC {
		return Output{
			RepCount: d.repCount,
			Feedback: MissingFeedback(d.cfg.Exercise),
			Phase:    d.phase,
			LastRep:  d.lastRepCopy(),
		}
	}

	angle := d.smoother.Update(d.joints.angle(a, b, c))
	d.step(angle, frame.TimestampMs)

	rounded := int(math.Round(angle))
	return Output{
		RepCount:     d.repCount,
		Feedback:     Feedback(d.phase, d.cfg, angle),
		Phase:        d.phase,
		CurrentAngle: &rounded,
		LastRep:      d.lastRepCopy(),
	}
}

func (d *Detector) step(angle float64, ts int64) {
	if d.phase == PhaseReady {
		if angle < d.cfg.DownThreshold {
			d.phase = PhaseDown
			d.startTs = ts
			d.minAngle = angle
		}
		return
	}

	d.minAngle = math.Min(d.minAngle, angle)

	switch d.phase {
	case PhaseDown:
		if angle < d.cfg.BottomThreshold {
			d.phase = PhaseBottom
		} else if angle > d.cfg.UpThreshold {
			// Came back up without reaching depth.
			d.aborted++
			d.toReady()
		}

	case PhaseBottom:
		if angle > d.cfg.BottomThreshold+d.cfg.Hysteresis {
			d.phase = PhaseUp
		}

	case PhaseUp:
		if angle > d.cfg.UpThreshold {
			d.complete(ts)
			d.toReady()
		}
	}
}

func (d *Detector) complete(ts int64) {
	duration := ts - d.startTs
	if duration <= d.cfg.MinRepDurationMs {
		d.discarded++
		return
	}

	d.repCount++
	d.lastRep = &RepStats{
		MinAngle:   d.minAngle,
		MaxAngle:   NeutralAngle,
		FormScore:  Score(NeutralAngle-d.minAngle, d.cfg.ROMTarget, duration),
		DurationMs: duration,
	}
}

func (d *Detector) toReady() {
	d.phase = PhaseReady
	d.minAngle = NeutralAngle
}

func (d *Detector) lastRepCopy() *RepStats {
	if d.lastRep == nil {
		return nil
	}
	stats := *d.lastRep
	return &stats
}

// ResetPhase returns to ready and forgets the smoothed signal and last
// repetition. The repetition count is kept.
func (d *Detector) ResetPhase() {
	d.toReady()
	d.smoother.Reset()
	d.startTs = 0
	d.lastRep = nil
}

// ResetAll is ResetPhase plus zeroing every counter.
func (d *Detector) ResetAll() {
	d.ResetPhase()
	d.repCount = 0
	d.aborted = 0
	d.discarded = 0
}

// Phase returns the current phase.
func (d *Detector) Phase() Phase { return d.phase }

// RepCount returns the number of accepted repetitions.
func (d *Detector) RepCount() int { return d.repCount }

// Exercise returns the tracked exercise.
func (d *Detector) Exercise() Exercise { return d.cfg.Exercise }

// Config returns the configuration the detector was built with.
func (d *Detector) Config() Config { return d.cfg }

// LastRep returns a copy of the last accepted repetition, or nil.
func (d *Detector) LastRep() *RepStats { return d.lastRepCopy() }

// Aborted counts descents that returned to the top without reaching depth.
func (d *Detector) Aborted() int { return d.aborted }

// Discarded counts full cycles rejected for being shorter than MinRepDurationMs.
func (d *Detector) Discarded() int { return d.discarded }
