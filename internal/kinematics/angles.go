// Package kinematics computes joint angles from body landmarks and smooths them over time.
package kinematics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/repsense/internal/pose"
)

// degenerateEpsilon is the shortest segment, in normalized units, that still
// defines a direction. Shorter segments make the angle undefined.
const degenerateEpsilon = 1e-6

func vec(l pose.Landmark) r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y, Z: l.Z}
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Angle returns the angle in degrees at vertex b formed by the rays b→a and b→c.
// The result is in [0, 180]. If either ray is shorter than degenerateEpsilon
// (coincident points) Angle returns 0.
func Angle(a, b, c pose.Landmark) float64 {
	ba := r3.Sub(vec(a), vec(b))
	bc := r3.Sub(vec(c), vec(b))

	baMag := r3.Norm(ba)
	bcMag := r3.Norm(bc)
	if baMag < degenerateEpsilon || bcMag < degenerateEpsilon {
		return 0
	}

	// Clamp to tolerate floating point drift outside acos's domain.
	cos := r3.Dot(ba, bc) / (baMag * bcMag)
	cos = math.Min(math.Max(cos, -1), 1)

	return toDegrees(math.Acos(cos))
}

// KneeFlexion returns the knee angle. 180 is a fully extended leg.
func KneeFlexion(hip, knee, ankle pose.Landmark) float64 {
	return Angle(hip, knee, ankle)
}

// HipFlexion returns the hip angle. 180 is a neutral standing or lying hip,
// about 90 puts the thigh perpendicular to the trunk.
func HipFlexion(shoulder, hip, knee pose.Landmark) float64 {
	return Angle(shoulder, hip, knee)
}

// ShoulderFlexion approximates shoulder flexion/abduction. Near 0 the arm
// hangs along the trunk; the reading grows as the arm is raised and depends
// on camera angle.
func ShoulderFlexion(hip, shoulder, elbow pose.Landmark) float64 {
	return Angle(hip, shoulder, elbow)
}

// ElbowFlexion returns the elbow angle. 180 is a fully extended arm.
func ElbowFlexion(shoulder, elbow, wrist pose.Landmark) float64 {
	return Angle(shoulder, elbow, wrist)
}

// TorsoLean returns the absolute angle, in degrees, between the hip→shoulder
// vector and the +Y axis. With a Y-up frame an upright trunk reads 0; in
// Y-down image coordinates it reads 180.
func TorsoLean(hip, shoulder pose.Landmark) float64 {
	dy := shoulder.Y - hip.Y
	dx := shoulder.X - hip.X
	// atan2(dx, dy) measures from the Y axis.
	return math.Abs(toDegrees(math.Atan2(dx, dy)))
}
