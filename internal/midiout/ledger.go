package midiout

import (
	"errors"
	"sort"
	"sync"

	"gitlab.com/gomidi/midi/v2"
)

type noteKey struct {
	ch  uint8
	key uint8
}

// Ledger forwards messages to a Sender and remembers which notes are sounding.
// AllOff and Close release every remembered note before the port is closed.
type Ledger struct {
	out      Sender
	mu       sync.Mutex
	sounding map[noteKey]bool
	sent     int
	closed   bool
}

// NewLedger wraps out.
func NewLedger(out Sender) *Ledger {
	return &Ledger{out: out, sounding: make(map[noteKey]bool)}
}

// NoteOn sounds a note. A note that is already sounding is released first so
// the receiver never sees two note-ons for the same pitch.
func (l *Ledger) NoteOn(ch, key, vel uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := noteKey{ch, key}
	if l.sounding[k] {
		if err := l.send(midi.NoteOff(ch, key)); err != nil {
			return err
		}
		delete(l.sounding, k)
	}
	if err := l.send(midi.NoteOn(ch, key, vel)); err != nil {
		return err
	}
	l.sounding[k] = true
	return nil
}

// NoteOff releases a note. Releasing a silent note is a no-op. A note whose
// note-off could not be sent stays sounding, so AllOff and Close retry it.
func (l *Ledger) NoteOff(ch, key uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := noteKey{ch, key}
	if !l.sounding[k] {
		return nil
	}
	if err := l.send(midi.NoteOff(ch, key)); err != nil {
		return err
	}
	delete(l.sounding, k)
	return nil
}

// Send forwards any message. Note messages are routed through NoteOn/NoteOff.
func (l *Ledger) Send(msg midi.Message) error {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return l.NoteOn(ch, key, vel)
	case msg.GetNoteEnd(&ch, &key):
		return l.NoteOff(ch, key)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.send(msg)
}

// Sounding returns the number of notes currently on.
func (l *Ledger) Sounding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sounding)
}

// Sent returns the number of messages forwarded so far.
func (l *Ledger) Sent() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sent
}

// AllOff releases every sounding note in channel/key order. Every note is
// attempted even when some sends fail; the failed ones stay sounding.
func (l *Ledger) AllOff() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allOff(false)
}

// Close releases every sounding note and then closes the underlying output.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	// The port goes away, so notes that failed are forgotten too.
	offErr := l.allOff(true)
	return errors.Join(offErr, l.out.Close())
}

func (l *Ledger) allOff(forget bool) error {
	keys := make([]noteKey, 0, len(l.sounding))
	for k := range l.sounding {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ch != keys[j].ch {
			return keys[i].ch < keys[j].ch
		}
		return keys[i].key < keys[j].key
	})

	var errs []error
	for _, k := range keys {
		if err := l.send(midi.NoteOff(k.ch, k.key)); err != nil {
			errs = append(errs, err)
			if !forget {
				continue
			}
		}
		delete(l.sounding, k)
	}
	return errors.Join(errs...)
}

func (l *Ledger) send(msg midi.Message) error {
	l.sent++
	return l.out.Send(msg)
}
