package midiout

import (
	"errors"
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func TestLedger_NoteOnOff(t *testing.T) {
	rec := NewRecorder()
	l := NewLedger(rec)

	if err := l.NoteOn(0, 60, 100); err != nil {
		t.Fatalf("NoteOn: %v", err)
	}
	if err := l.NoteOn(1, 64, 90); err != nil {
		t.Fatalf("NoteOn: %v", err)
	}
	if got := l.Sounding(); got != 2 {
		t.Fatalf("Sounding() = %d, want 2", got)
	}

	if err := l.NoteOff(0, 60); err != nil {
		t.Fatalf("NoteOff: %v", err)
	}
	if err := l.NoteOff(0, 60); err != nil {
		t.Fatalf("second NoteOff: %v", err)
	}
	if got := rec.Count(KindNoteOff); got != 1 {
		t.Errorf("note-offs = %d, want 1 (releasing a silent note is a no-op)", got)
	}
}

func TestLedger_RetriggerReleasesFirst(t *testing.T) {
	rec := NewRecorder()
	l := NewLedger(rec)

	_ = l.NoteOn(0, 60, 100)
	_ = l.NoteOn(0, 60, 80)

	events := rec.Events()
	want := []string{KindNoteOn, KindNoteOff, KindNoteOn}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, kind := range want {
		if events[i].Kind != kind {
			t.Errorf("event %d kind = %s, want %s", i, events[i].Kind, kind)
		}
	}
}

func TestLedger_SendRoutesNotes(t *testing.T) {
	rec := NewRecorder()
	l := NewLedger(rec)

	_ = l.Send(midi.NoteOn(2, 50, 70))
	_ = l.Send(midi.ControlChange(2, 64, 127))
	if l.Sounding() != 1 {
		t.Fatalf("Sounding() = %d, want 1", l.Sounding())
	}
	// note-on with velocity zero ends the note
	_ = l.Send(midi.NoteOn(2, 50, 0))
	if l.Sounding() != 0 {
		t.Errorf("Sounding() = %d after velocity-0 note-on, want 0", l.Sounding())
	}
	if rec.Count(KindOther) != 1 {
		t.Errorf("control change should be forwarded once, got %d", rec.Count(KindOther))
	}
}

func TestLedger_CloseReleasesEverythingBeforeClosing(t *testing.T) {
	rec := NewRecorder()
	l := NewLedger(rec)

	notes := []uint8{48, 55, 60, 64, 67}
	for _, n := range notes {
		_ = l.NoteOn(0, n, 100)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := rec.Events()
	offs := 0
	for i, e := range events {
		if e.Kind == KindNoteOff {
			offs++
		}
		if e.Kind == KindClose && i != len(events)-1 {
			t.Error("close must be the last event")
		}
	}
	if offs != len(notes) {
		t.Errorf("note-offs before close = %d, want %d", offs, len(notes))
	}
	if !rec.Closed() {
		t.Error("underlying sender should be closed")
	}

	// second close is a no-op
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestLedger_CloseAttemptsAllNotesOnSendFailure(t *testing.T) {
	rec := NewRecorder()
	l := NewLedger(rec)
	_ = l.NoteOn(0, 60, 100)
	_ = l.NoteOn(0, 62, 100)

	boom := errors.New("cable pulled")
	rec.FailAfter(2, boom)

	err := l.Close()
	if !errors.Is(err, boom) {
		t.Errorf("Close error = %v, want %v", err, boom)
	}
	if l.Sounding() != 0 {
		t.Error("ledger should forget notes even when their note-off failed")
	}
	if !rec.Closed() {
		t.Error("port must be closed even when note-offs fail")
	}
}

func TestLedger_FailedNoteOffIsRetried(t *testing.T) {
	tests := []struct {
		name    string
		release func(l *Ledger) error
	}{
		{"note off", func(l *Ledger) error { return l.NoteOff(0, 60) }},
		{"all off", func(l *Ledger) error { return l.AllOff() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder()
			l := NewLedger(rec)
			if err := l.NoteOn(0, 60, 100); err != nil {
				t.Fatal(err)
			}

			boom := errors.New("port busy")
			rec.FailAfter(1, boom)
			if err := tt.release(l); !errors.Is(err, boom) {
				t.Fatalf("release error = %v, want %v", err, boom)
			}
			if l.Sounding() != 1 {
				t.Fatalf("Sounding() = %d after a failed note-off, want 1", l.Sounding())
			}

			rec.FailAfter(-1, nil)
			if err := l.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if got := rec.Count(KindNoteOff); got != 1 {
				t.Errorf("note-offs delivered = %d, want 1", got)
			}
			if l.Sounding() != 0 {
				t.Errorf("Sounding() after Close = %d, want 0", l.Sounding())
			}
		})
	}
}
