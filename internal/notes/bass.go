package notes

import "time"

// BassAnchor selects what the simultaneous-bass window is measured from.
type BassAnchor int

const (
	// AnchorFirstPress measures from the first finger down after silence.
	AnchorFirstPress BassAnchor = iota
	// AnchorChordChange measures from the moment the chord changed.
	AnchorChordChange
)

// BassState is the state of the one-shot trigger for the current chord.
type BassState int

const (
	// BassArmed may still fire for this chord.
	BassArmed BassState = iota
	// BassFired has fired and waits for the next chord.
	BassFired
)

// BassTrigger fires at most once per chord, when the total number of fingers
// down across both hands crosses from below two to two or more within the
// window and the left hand has a finger down.
type BassTrigger struct {
	Window time.Duration
	Anchor BassAnchor

	state      BassState
	prevTotal  int
	firstPress time.Time
	chordAt    time.Time
}

// NewBassTrigger creates an armed trigger.
func NewBassTrigger(window time.Duration, anchor BassAnchor) *BassTrigger {
	return &BassTrigger{Window: window, Anchor: anchor}
}

// State returns the trigger state.
func (b *BassTrigger) State() BassState {
	return b.state
}

// ChordChanged re-arms the trigger.
func (b *BassTrigger) ChordChanged(now time.Time) {
	b.state = BassArmed
	b.chordAt = now
}

// Update feeds the finger counts of one frame and reports whether the bass
// fires on this frame.
func (b *BassTrigger) Update(now time.Time, total, leftDown int) bool {
	defer func() { b.prevTotal = total }()

	if total == 0 {
		b.firstPress = time.Time{}
	}
	if b.prevTotal == 0 && total > 0 && b.firstPress.IsZero() {
		b.firstPress = now
	}

	if b.state != BassArmed || leftDown < 1 {
		return false
	}
	if !(b.prevTotal < 2 && total >= 2) {
		return false
	}

	anchor := b.firstPress
	if b.Anchor == AnchorChordChange {
		anchor = b.chordAt
	}
	if anchor.IsZero() || now.Sub(anchor) > b.Window {
		return false
	}

	b.state = BassFired
	return true
}

// Reset clears all history and re-arms the trigger.
func (b *BassTrigger) Reset() {
	*b = BassTrigger{Window: b.Window, Anchor: b.Anchor}
}
