package expression

import (
	"errors"
	"math/rand"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/logging"
)

// Output receives the modulated stream. midiout.Ledger implements it.
type Output interface {
	NoteOn(ch, key, vel uint8) error
	NoteOff(ch, key uint8) error
	Send(msg midi.Message) error
}

// MoodSource reports the current scores.
type MoodSource interface {
	Get() (happy, special float64)
}

type noteKey struct {
	ch, key uint8
}

// Modulator sits between a score player and the output. Each note-on may be
// altered according to the mood; the matching note-off is sent to whatever
// pitch the note-on became. Control changes pass through; other channel
// messages are dropped.
type Modulator struct {
	out    Output
	curves Curves
	root   int
	mood   MoodSource
	log    *zap.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	mapped  map[noteKey]uint8
	altered int
}

// NewModulator creates a modulator for a score in the key with pitch class
// root.
func NewModulator(out Output, curves Curves, root int, mood MoodSource, rng *rand.Rand, logger *zap.Logger) *Modulator {
	return &Modulator{
		out:    out,
		curves: curves,
		root:   root,
		mood:   mood,
		log:    logging.OrNop(logger),
		rng:    rng,
		mapped: make(map[noteKey]uint8),
	}
}

// Send implements the player's Sender.
func (m *Modulator) Send(msg midi.Message) error {
	var ch, key, vel, ctl, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return m.noteOn(ch, key, vel)
	case msg.GetNoteEnd(&ch, &key):
		return m.noteOff(ch, key)
	case msg.GetControlChange(&ch, &ctl, &val):
		return m.out.Send(msg)
	}
	return nil
}

func (m *Modulator) noteOn(ch, key, vel uint8) error {
	happy, special := m.mood.Get()
	probs := m.curves.Probs(happy, special)

	m.mu.Lock()
	n := uint8(Alter(m.rng, int(key), m.root, probs))
	k := noteKey{ch, key}
	prev, retrigger := m.mapped[k]
	m.mapped[k] = n
	if n != key {
		m.altered++
	}
	m.mu.Unlock()

	if n != key {
		m.log.Debug("note altered", zap.Uint8("from", key), zap.Uint8("to", n))
	}
	if retrigger && prev != n {
		if err := m.out.NoteOff(ch, prev); err != nil {
			return err
		}
	}
	return m.out.NoteOn(ch, n, vel)
}

func (m *Modulator) noteOff(ch, key uint8) error {
	k := noteKey{ch, key}
	m.mu.Lock()
	n, ok := m.mapped[k]
	delete(m.mapped, k)
	m.mu.Unlock()

	if !ok {
		n = key
	}
	return m.out.NoteOff(ch, n)
}

// Altered returns how many note-ons were shifted.
func (m *Modulator) Altered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.altered
}

// Held returns the number of notes waiting for their note-off.
func (m *Modulator) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mapped)
}

// Stop releases every mapped note.
func (m *Modulator) Stop() error {
	m.mu.Lock()
	held := m.mapped
	m.mapped = make(map[noteKey]uint8)
	m.mu.Unlock()

	var errs []error
	for k, n := range held {
		if err := m.out.NoteOff(k.ch, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
