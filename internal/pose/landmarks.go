// Package pose provides the body landmark types and frame sources consumed by the rep engine.
package pose

// Body landmark indices following the MediaPipe BlazePose 33-point convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Landmark is a single tracked body joint in normalized image coordinates.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame is the set of landmarks detected at one instant.
// A nil entry marks a landmark the pose service did not report.
type Frame struct {
	Landmarks   []*Landmark `json:"landmarks"`
	TimestampMs int64       `json:"timestamp_ms"`
}

// At returns the landmark at index i. The second result is false when the
// landmark is absent or its visibility is below minVisibility.
func (f Frame) At(i int, minVisibility float64) (Landmark, bool) {
	if i < 0 || i >= len(f.Landmarks) || f.Landmarks[i] == nil {
		return Landmark{}, false
	}
	lm := *f.Landmarks[i]
	if minVisibility > 0 && lm.Visibility < minVisibility {
		return Landmark{}, false
	}
	return lm, true
}

// Without returns a copy of the frame with the given landmarks removed.
func (f Frame) Without(indices ...int) Frame {
	out := Frame{
		Landmarks:   make([]*Landmark, len(f.Landmarks)),
		TimestampMs: f.TimestampMs,
	}
	copy(out.Landmarks, f.Landmarks)
	for _, i := range indices {
		if i >= 0 && i < len(out.Landmarks) {
			out.Landmarks[i] = nil
		}
	}
	return out
}
