package kinematics

// Smooth is one step of an exponential moving average.
// A nil previous value bootstraps the filter and returns current unchanged.
// Lower alpha smooths harder at the cost of lag; alpha must be in (0, 1].
func Smooth(previous *float64, current, alpha float64) float64 {
	if previous == nil {
		return current
	}
	return alpha*current + (1-alpha)*(*previous)
}

// Smoother holds the state of an EMA filter over a scalar signal.
// The zero value is unset; use NewSmoother to pick alpha.
type Smoother struct {
	alpha float64
	value float64
	set   bool
}

// NewSmoother creates a Smoother with the given alpha.
func NewSmoother(alpha float64) *Smoother {
	return &Smoother{alpha: alpha}
}

// Update feeds a raw sample and returns the new smoothed value.
func (s *Smoother) Update(current float64) float64 {
	var prev *float64
	if s.set {
		prev = &s.value
	}
	s.value = Smooth(prev, current, s.alpha)
	s.set = true
	return s.value
}

// Value returns the current smoothed value and whether any sample has been seen.
func (s *Smoother) Value() (float64, bool) {
	return s.value, s.set
}

// Reset returns the filter to the unset state.
func (s *Smoother) Reset() {
	s.value = 0
	s.set = false
}

// Alpha returns the smoothing factor.
func (s *Smoother) Alpha() float64 {
	return s.alpha
}
