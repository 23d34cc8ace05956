// Package rep detects exercise repetitions from a joint-angle signal and scores their form.
package rep

import (
	"fmt"
	"strings"

	"github.com/ayusman/repsense/internal/kinematics"
	"github.com/ayusman/repsense/internal/pose"
)

// Exercise identifies which movement a detector tracks.
type Exercise string

const (
	// Squat tracks knee flexion.
	Squat Exercise = "squat"
	// StraightLegRaise tracks hip flexion.
	StraightLegRaise Exercise = "slr"
	// ElbowFlexion tracks the elbow angle of a curl.
	ElbowFlexion Exercise = "elbow_flexion"
)

// Exercises lists every supported exercise.
var Exercises = []Exercise{Squat, StraightLegRaise, ElbowFlexion}

// ParseExercise converts a wire name into an Exercise.
func ParseExercise(s string) (Exercise, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "squat":
		return Squat, nil
	case "slr", "straight_leg_raise":
		return StraightLegRaise, nil
	case "elbow_flexion", "curl":
		return ElbowFlexion, nil
	}
	names := make([]string, len(Exercises))
	for i, ex := range Exercises {
		names[i] = string(ex)
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownExercise, s, strings.Join(names, ", "))
}

// Side selects which limb a detector reads.
type Side string

// Supported sides.
const (
	Left  Side = "left"
	Right Side = "right"
)

// ParseSide converts a wire name into a Side. An empty string means Left.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return "", fmt.Errorf("%w: unknown side %q", ErrInvalidConfig, s)
}

// angleFunc computes a joint angle from three landmarks, vertex in the middle.
type angleFunc func(a, b, c pose.Landmark) float64

// joints binds an exercise and side to the landmark triple it reads.
type joints struct {
	a, b, c int
	angle   angleFunc
}

func jointsFor(ex Exercise, side Side) (joints, error) {
	left := side == Left
	pick := func(l, r int) int {
		if left {
			return l
		}
		return r
	}

	switch ex {
	case Squat:
		return joints{
			a:     pick(pose.LeftHip, pose.RightHip),
			b:     pick(pose.LeftKnee, pose.RightKnee),
			c:     pick(pose.LeftAnkle, pose.RightAnkle),
			angle: kinematics.KneeFlexion,
		}, nil
	case StraightLegRaise:
		return joints{
			a:     pick(pose.LeftShoulder, pose.RightShoulder),
			b:     pick(pose.LeftHip, pose.RightHip),
			c:     pick(pose.LeftKnee, pose.RightKnee),
			angle: kinematics.HipFlexion,
		}, nil
	case ElbowFlexion:
		return joints{
			a:     pick(pose.LeftShoulder, pose.RightShoulder),
			b:     pick(pose.LeftElbow, pose.RightElbow),
			c:     pick(pose.LeftWrist, pose.RightWrist),
			angle: kinematics.ElbowFlexion,
		}, nil
	}
	return joints{}, fmt.Errorf("%w: %q", ErrUnknownExercise, ex)
}
