package session

import (
	"github.com/ayusman/pianogames/internal/detector"
	"github.com/ayusman/pianogames/internal/gesture"
	"github.com/ayusman/pianogames/internal/notes"
)

// hand is the per-hand part of the session state. Everything except voice
// is guarded by Session.mu; voice is only touched under Session.ioMu.
type hand struct {
	label   string
	voice   *notes.Voice
	tracker *gesture.Tracker

	present    bool
	smoothed   bool
	wristX     float64
	wristY     float64
	down       int
	prevDown   int
	pressedNow int
	pcs        []int
}

func newHand(label string, channel uint8, r notes.Register, th gesture.Thresholds, useThumb bool) *hand {
	return &hand{
		label:   label,
		voice:   notes.NewVoice(channel, r),
		tracker: gesture.NewTracker(th, useThumb),
	}
}

// observe updates presence, the smoothed wrist and finger states from one
// detection. It returns the press edges of the frame.
func (h *hand) observe(lm *detector.HandLandmarks, alpha float64) []gesture.Press {
	if lm == nil {
		h.present = false
		h.down = 0
		h.pressedNow = 0
		h.tracker.Reset()
		return nil
	}
	h.present = true

	w := lm.WristPoint()
	if !h.smoothed {
		h.wristX, h.wristY = w.X, w.Y
		h.smoothed = true
	} else {
		h.wristX = alpha*w.X + (1-alpha)*h.wristX
		h.wristY = alpha*w.Y + (1-alpha)*h.wristY
	}

	f := h.tracker.Update(lm)
	h.down = f.Down
	h.pressedNow = f.PressedNow()
	return f.Presses
}

// x returns the smoothed wrist position, or the middle before any detection.
func (h *hand) x() float64 {
	if !h.smoothed {
		return 0.5
	}
	return h.wristX
}

// downIfPresent counts pressed fingers of a visible hand.
func (h *hand) downIfPresent() int {
	if !h.present {
		return 0
	}
	return h.down
}
