package pose

import (
	"context"
	"io"
	"math"
)

// MockSource is a test implementation of the Source interface.
// It replays a fixed list of frames.
type MockSource struct {
	frames []Frame
	pos    int
	err    error
	closed bool
}

// NewMockSource creates a new MockSource that yields frames in order.
func NewMockSource(frames ...Frame) *MockSource {
	return &MockSource{frames: frames}
}

// SetError sets the error that will be returned by Next.
func (m *MockSource) SetError(err error) {
	m.err = err
}

// Next returns the next pre-configured frame, or io.EOF when exhausted.
func (m *MockSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if m.err != nil {
		return Frame{}, m.err
	}
	if m.pos >= len(m.frames) {
		return Frame{}, io.EOF
	}
	f := m.frames[m.pos]
	m.pos++
	return f, nil
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool {
	return m.closed
}

// limbLength is the segment length used by the synthetic poses, in normalized units.
const limbLength = 0.2

// StandingLandmarks returns a full 33-point upright pose facing the camera.
// Legs and arms are straight, so every flexion angle is 180 degrees.
func StandingLandmarks() []*Landmark {
	pts := [NumLandmarks]Landmark{}

	// Head cluster
	for i := Nose; i <= MouthRight; i++ {
		pts[i] = Landmark{X: 0.5, Y: 0.12, Z: 0}
	}
	pts[LeftEar] = Landmark{X: 0.54, Y: 0.12}
	pts[RightEar] = Landmark{X: 0.46, Y: 0.12}

	// Torso. Y grows downward in image coordinates.
	pts[LeftShoulder] = Landmark{X: 0.56, Y: 0.25}
	pts[RightShoulder] = Landmark{X: 0.44, Y: 0.25}
	pts[LeftHip] = Landmark{X: 0.54, Y: 0.50}
	pts[RightHip] = Landmark{X: 0.46, Y: 0.50}

	// Arms hanging straight down
	for _, side := range []struct{ shoulder, elbow, wrist, pinky, index, thumb int }{
		{LeftShoulder, LeftElbow, LeftWrist, LeftPinky, LeftIndex, LeftThumb},
		{RightShoulder, RightElbow, RightWrist, RightPinky, RightIndex, RightThumb},
	} {
		s := pts[side.shoulder]
		pts[side.elbow] = Landmark{X: s.X, Y: s.Y + limbLength}
		pts[side.wrist] = Landmark{X: s.X, Y: s.Y + 2*limbLength}
		pts[side.pinky] = Landmark{X: s.X, Y: s.Y + 2*limbLength + 0.02}
		pts[side.index] = Landmark{X: s.X, Y: s.Y + 2*limbLength + 0.03}
		pts[side.thumb] = Landmark{X: s.X, Y: s.Y + 2*limbLength + 0.01}
	}

	// Legs straight
	for _, side := range []struct{ hip, knee, ankle, heel, foot int }{
		{LeftHip, LeftKnee, LeftAnkle, LeftHeel, LeftFootIndex},
		{RightHip, RightKnee, RightAnkle, RightHeel, RightFootIndex},
	} {
		h := pts[side.hip]
		pts[side.knee] = Landmark{X: h.X, Y: h.Y + limbLength}
		pts[side.ankle] = Landmark{X: h.X, Y: h.Y + 2*limbLength}
		pts[side.heel] = Landmark{X: h.X, Y: h.Y + 2*limbLength + 0.02}
		pts[side.foot] = Landmark{X: h.X, Y: h.Y + 2*limbLength + 0.02, Z: -0.05}
	}

	out := make([]*Landmark, NumLandmarks)
	for i := range pts {
		lm := pts[i]
		lm.Visibility = 0.99
		out[i] = &lm
	}
	return out
}

// BendJoint returns landmarks in which the angle at vertex b, between the
// rays to a and c, equals angleDeg. Point a is kept fixed relative to b and
// c is rotated in the image plane. The input slice is not modified.
func BendJoint(landmarks []*Landmark, a, b, c int, angleDeg float64) []*Landmark {
	out := make([]*Landmark, len(landmarks))
	for i, lm := range landmarks {
		if lm != nil {
			cp := *lm
			out[i] = &cp
		}
	}

	va := out[a]
	vb := out[b]
	dx, dy := va.X-vb.X, va.Y-vb.Y
	length := math.Hypot(dx, dy)
	ux, uy := dx/length, dy/length

	rad := angleDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	out[c] = &Landmark{
		X:          vb.X + limbLength*(ux*cos-uy*sin),
		Y:          vb.Y + limbLength*(ux*sin+uy*cos),
		Z:          vb.Z,
		Visibility: out[c].Visibility,
	}
	return out
}

// SquatFrame returns a frame whose knee on the given side is flexed to kneeAngle.
func SquatFrame(left bool, kneeAngle float64, ts int64) Frame {
	hip, knee, ankle := RightHip, RightKnee, RightAnkle
	if left {
		hip, knee, ankle = LeftHip, LeftKnee, LeftAnkle
	}
	return Frame{
		Landmarks:   BendJoint(StandingLandmarks(), hip, knee, ankle, kneeAngle),
		TimestampMs: ts,
	}
}

// LegRaiseFrame returns a frame whose hip on the given side is flexed to hipAngle.
func LegRaiseFrame(left bool, hipAngle float64, ts int64) Frame {
	shoulder, hip, knee := RightShoulder, RightHip, RightKnee
	if left {
		shoulder, hip, knee = LeftShoulder, LeftHip, LeftKnee
	}
	return Frame{
		Landmarks:   BendJoint(StandingLandmarks(), shoulder, hip, knee, hipAngle),
		TimestampMs: ts,
	}
}

// CurlFrame returns a frame whose elbow on the given side is flexed to elbowAngle.
func CurlFrame(left bool, elbowAngle float64, ts int64) Frame {
	shoulder, elbow, wrist := RightShoulder, RightElbow, RightWrist
	if left {
		shoulder, elbow, wrist = LeftShoulder, LeftElbow, LeftWrist
	}
	return Frame{
		Landmarks:   BendJoint(StandingLandmarks(), shoulder, elbow, wrist, elbowAngle),
		TimestampMs: ts,
	}
}
