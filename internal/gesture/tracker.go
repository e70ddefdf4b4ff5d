package gesture

import "github.com/ayusman/pianogames/internal/detector"

// Press is a press edge on one finger, with its tip in normalized image
// coordinates.
type Press struct {
	Finger int
	TipX   float64
	TipY   float64
}

// Frame summarizes one hand after an update.
type Frame struct {
	// Down is the number of fingers currently pressed.
	Down int
	// Presses lists the fingers that went Released to Pressed this frame.
	Presses []Press
}

// PressedNow returns the number of press edges in the frame.
func (f Frame) PressedNow() int {
	return len(f.Presses)
}

// Tracker follows every finger of one hand.
type Tracker struct {
	th      Thresholds
	joints  []Joint
	fingers []Finger
}

// NewTracker creates a tracker for one hand. The thumb is skipped unless
// useThumb is set.
func NewTracker(th Thresholds, useThumb bool) *Tracker {
	joints := Joints(useThumb)
	return &Tracker{
		th:      th,
		joints:  joints,
		fingers: make([]Finger, len(joints)),
	}
}

// Fingers returns how many fingers are tracked.
func (t *Tracker) Fingers() int {
	return len(t.fingers)
}

// States returns the state of each tracked finger.
func (t *Tracker) States() []State {
	states := make([]State, len(t.fingers))
	for i := range t.fingers {
		states[i] = t.fingers[i].State()
	}
	return states
}

// Update feeds one set of landmarks.
func (t *Tracker) Update(hand *detector.HandLandmarks) Frame {
	var f Frame
	if hand == nil {
		return f
	}
	for i, j := range t.joints {
		angle := JointAngle(hand.Points[j.Base], hand.Points[j.Middle], hand.Points[j.Tip])
		if t.fingers[i].Update(angle, t.th) == PressEdge {
			tip := hand.Points[j.Tip]
			f.Presses = append(f.Presses, Press{Finger: i, TipX: tip.X, TipY: tip.Y})
		}
		if t.fingers[i].State() == Pressed {
			f.Down++
		}
	}
	return f
}

// Reset releases every finger.
func (t *Tracker) Reset() {
	for i := range t.fingers {
		t.fingers[i].Reset()
	}
}
