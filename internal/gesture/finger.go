// Package gesture turns hand landmarks into discrete finger press and release
// events using a two-threshold hysteresis on the middle joint angle.
package gesture

import (
	"math"

	"github.com/ayusman/pianogames/internal/detector"
)

// State is the press state of one finger.
type State int

const (
	// Released means the finger is extended.
	Released State = iota
	// Pressed means the finger is curled past the press threshold.
	Pressed
)

func (s State) String() string {
	if s == Pressed {
		return "pressed"
	}
	return "released"
}

// Transition is the result of feeding one angle sample to a Finger.
type Transition int

const (
	// NoChange means the state did not move.
	NoChange Transition = iota
	// PressEdge is a Released to Pressed transition.
	PressEdge
	// ReleaseEdge is a Pressed to Released transition.
	ReleaseEdge
)

// Thresholds holds the press and release angles in degrees. Press must be
// below Release; angles strictly between the two never change state.
type Thresholds struct {
	Press   float64
	Release float64
}

// DefaultThresholds returns 165/175 degrees.
func DefaultThresholds() Thresholds {
	return Thresholds{Press: 165, Release: 175}
}

// Finger is the per-finger hysteresis state machine.
type Finger struct {
	state State
}

// State returns the current state.
func (f *Finger) State() State {
	return f.state
}

// Update feeds one joint angle and returns the transition it caused.
func (f *Finger) Update(angle float64, th Thresholds) Transition {
	switch f.state {
	case Released:
		if angle <= th.Press {
			f.state = Pressed
			return PressEdge
		}
	case Pressed:
		if angle >= th.Release {
			f.state = Released
			return ReleaseEdge
		}
	}
	return NoChange
}

// Reset puts the finger back in Released.
func (f *Finger) Reset() {
	f.state = Released
}

// Joint names the three landmarks whose middle angle measures a finger's curl.
type Joint struct {
	Base, Middle, Tip int
}

// thumbJoint is only tracked when the thumb is enabled.
var thumbJoint = Joint{detector.ThumbMCP, detector.ThumbIP, detector.ThumbTip}

var fingerJoints = []Joint{
	{detector.IndexMCP, detector.IndexPIP, detector.IndexTip},
	{detector.MiddleMCP, detector.MiddlePIP, detector.MiddleTip},
	{detector.RingMCP, detector.RingPIP, detector.RingTip},
	{detector.PinkyMCP, detector.PinkyPIP, detector.PinkyTip},
}

// Joints returns the tracked joints, thumb first when enabled.
func Joints(useThumb bool) []Joint {
	if !useThumb {
		return append([]Joint(nil), fingerJoints...)
	}
	return append([]Joint{thumbJoint}, fingerJoints...)
}

// JointAngle returns the angle at b, in degrees, between the image-plane
// vectors b->a and b->c. A degenerate vector yields 0.
func JointAngle(a, b, c detector.Point3D) float64 {
	v1x, v1y := a.X-b.X, a.Y-b.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y
	n1 := math.Hypot(v1x, v1y)
	n2 := math.Hypot(v2x, v2y)
	if n1 == 0 || n2 == 0 {
		return 0
	}
	cos := (v1x*v2x + v1y*v2y) / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}
