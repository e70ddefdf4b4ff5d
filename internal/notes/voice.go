package notes

import (
	"errors"
	"sort"

	"github.com/ayusman/pianogames/internal/util"
)

// NoteSender sends single note events. midiout.Ledger implements it.
type NoteSender interface {
	NoteOn(ch, key, vel uint8) error
	NoteOff(ch, key uint8) error
}

// Voice is the set of notes one hand is sounding on its channel.
type Voice struct {
	Channel  uint8
	Register Register
	active   map[int]bool
}

// NewVoice creates a silent voice.
func NewVoice(channel uint8, r Register) *Voice {
	return &Voice{Channel: channel, Register: r, active: make(map[int]bool)}
}

// Want resolves pitch classes to the notes the hand should sound around
// center. A bass pitch class, when given, adds its lowest instance.
func (v *Voice) Want(pcs []int, center int, bassPC *int) []int {
	set := make(map[int]bool, len(pcs)+1)
	for _, pc := range pcs {
		if n, ok := Nearest(pc, center, v.Register); ok {
			set[n] = true
		}
	}
	if bassPC != nil {
		if n, ok := Lowest(*bassPC, v.Register); ok {
			set[n] = true
		}
	}
	return sortedKeys(set)
}

// Apply moves the voice to exactly want. Notes no longer wanted are released
// first, then new notes are sounded in ascending order at vel. Notes that
// stay wanted are left ringing.
func (v *Voice) Apply(out NoteSender, want []int, vel int) error {
	wanted := make(map[int]bool, len(want))
	for _, n := range want {
		wanted[n] = true
	}

	var errs []error
	for _, n := range sortedKeys(v.active) {
		if wanted[n] {
			continue
		}
		if err := out.NoteOff(v.Channel, uint8(n)); err != nil {
			errs = append(errs, err)
		}
		delete(v.active, n)
	}

	vel = util.Clamp(vel, 1, 127)
	for _, n := range sortedKeys(wanted) {
		if v.active[n] {
			continue
		}
		if err := out.NoteOn(v.Channel, uint8(util.ClampNote(n)), uint8(vel)); err != nil {
			errs = append(errs, err)
			continue
		}
		v.active[n] = true
	}
	return errors.Join(errs...)
}

// ReleaseAll silences the voice. Every note is attempted.
func (v *Voice) ReleaseAll(out NoteSender) error {
	return v.Apply(out, nil, 1)
}

// Active returns the sounding notes in ascending order.
func (v *Voice) Active() []int {
	return sortedKeys(v.active)
}

// Len returns the number of sounding notes.
func (v *Voice) Len() int {
	return len(v.active)
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
