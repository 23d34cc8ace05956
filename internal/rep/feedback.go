package rep

// goodDepthMargin widens the squat bottom threshold for the "good depth" cue.
const goodDepthMargin = 15

// Feedback returns the live cue shown for a phase. The text depends only on
// phase and exercise, except the squat descent which switches cue once the
// angle is within goodDepthMargin of the bottom threshold.
func Feedback(phase Phase, cfg Config, angle float64) string {
	if phase == PhaseReady {
		return "Get ready..."
	}

	switch cfg.Exercise {
	case Squat:
		switch phase {
		case PhaseDown:
			if angle < cfg.BottomThreshold+goodDepthMargin {
				return "Good depth, push up!"
			}
			return "Go lower..."
		case PhaseBottom:
			return "Hold..."
		case PhaseUp:
			return "Stand up tall"
		}

	case StraightLegRaise:
		// The hip angle falls as the leg rises, so "down" is the lift.
		switch phase {
		case PhaseDown:
			return "Lift higher..."
		case PhaseBottom:
			return "Hold..."
		case PhaseUp:
			return "Lower slowly"
		}

	case ElbowFlexion:
		switch phase {
		case PhaseDown:
			return "Squeeze up..."
		case PhaseBottom:
			return "Squeeze!"
		case PhaseUp:
			return "Extend fully"
		}
	}

	return "Move steadily"
}

// MissingFeedback is the cue shown while the tracked limb is out of frame.
func MissingFeedback(ex Exercise) string {
	if ex == ElbowFlexion {
		return "Show your arm"
	}
	return "Position yourself in frame"
}
