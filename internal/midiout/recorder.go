package midiout

import (
	"errors"
	"sync"

	"gitlab.com/gomidi/midi/v2"
)

// Event kinds captured by Recorder.
const (
	KindNoteOn  = "on"
	KindNoteOff = "off"
	KindOther   = "other"
	KindClose   = "close"
)

// Event is one message seen by a Recorder, decoded for assertions.
type Event struct {
	Kind     string
	Channel  uint8
	Key      uint8
	Velocity uint8
	Raw      midi.Message
}

// ErrRecorderClosed is returned by Send after Close.
var ErrRecorderClosed = errors.New("recorder closed")

// Recorder is a Sender that keeps every message in memory. Tests and the
// dry-run mode use it in place of a hardware port.
type Recorder struct {
	mu      sync.Mutex
	events  []Event
	closed  bool
	failOn  int
	failed  int
	sendErr error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{failOn: -1}
}

// FailAfter makes the n-th Send (zero based) and every later one return err.
func (r *Recorder) FailAfter(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn = n
	r.sendErr = err
}

// Send records msg.
func (r *Recorder) Send(msg midi.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRecorderClosed
	}
	sends := 0
	for _, e := range r.events {
		if e.Kind != KindClose {
			sends++
		}
	}
	if r.failOn >= 0 && sends+r.failed >= r.failOn {
		r.failed++
		return r.sendErr
	}

	r.events = append(r.events, decode(msg))
	return nil
}

// Close marks the recorder closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed {
		r.closed = true
		r.events = append(r.events, Event{Kind: KindClose})
	}
	return nil
}

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Reset forgets recorded events and reopens the recorder.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.closed = false
}

func decode(msg midi.Message) Event {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Kind: KindNoteOn, Channel: ch, Key: key, Velocity: vel, Raw: msg}
	case msg.GetNoteEnd(&ch, &key):
		return Event{Kind: KindNoteOff, Channel: ch, Key: key, Raw: msg}
	default:
		return Event{Kind: KindOther, Raw: msg}
	}
}
