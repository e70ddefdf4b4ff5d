package pitch

import (
	"context"
	"testing"
	"time"

	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/midiout"
)

func testOptions() Options {
	c := config.DefaultSinging()
	c.Accompaniment = false
	return OptionsFrom(c)
}

func TestSinger_SungNoteThenSilence(t *testing.T) {
	rec := midiout.NewRecorder()
	out := midiout.NewLedger(rec)
	s := NewSinger(testOptions(), out, nil, nil)

	voiced := sine(196, 0.5, 44100, 1024)
	quiet := make([]float64, 1024)

	note, _ := s.Detect(voiced)
	if note != 67 {
		t.Fatalf("Detect() = %d, want 67", note)
	}

	for _, block := range [][]float64{voiced, voiced, voiced, quiet, quiet, quiet} {
		if err := s.Process(block); err != nil {
			t.Fatalf("Process() error: %v", err)
		}
	}

	// One octave doubling: 67 and 79 each sound once and stop once.
	if got := rec.Count(midiout.KindNoteOn); got != 2 {
		t.Errorf("note-ons = %d, want 2", got)
	}
	if got := rec.Count(midiout.KindNoteOff); got != 2 {
		t.Errorf("note-offs = %d, want 2", got)
	}
	if s.NotesOn() != 1 {
		t.Errorf("NotesOn() = %d, want 1", s.NotesOn())
	}
	for _, ev := range rec.Events() {
		if ev.Kind == midiout.KindNoteOn && ev.Key != 67 && ev.Key != 79 {
			t.Errorf("unexpected note-on %d", ev.Key)
		}
		if ev.Kind == midiout.KindNoteOn && ev.Velocity != 90 {
			t.Errorf("velocity = %d, want 90", ev.Velocity)
		}
	}
	if out.Sounding() != 0 {
		t.Errorf("Sounding() = %d, want 0", out.Sounding())
	}
}

func TestSinger_OutOfRangeIsSilence(t *testing.T) {
	opts := testOptions()
	opts.MaxFreq = 150
	s := NewSinger(opts, midiout.NewLedger(midiout.NewRecorder()), nil, nil)
	if note, _ := s.Detect(sine(196, 0.5, 44100, 1024)); note != Silence {
		t.Errorf("Detect() = %d, want Silence", note)
	}
	if note, _ := s.Detect(sine(196, 0.001, 44100, 1024)); note != Silence {
		t.Errorf("quiet block Detect() = %d, want Silence", note)
	}
}

func TestSinger_Velocity(t *testing.T) {
	s := NewSinger(testOptions(), nil, nil, nil)
	tests := []struct {
		rms  float64
		want int
	}{
		{0, 20},
		{0.1, 40},
		{1, 127},
	}
	for _, tt := range tests {
		if got := s.Velocity(tt.rms); got != tt.want {
			t.Errorf("Velocity(%v) = %d, want %d", tt.rms, got, tt.want)
		}
	}
	opts := testOptions()
	opts.VelocityOffset = -50
	s = NewSinger(opts, nil, nil, nil)
	if got := s.Velocity(0); got != 1 {
		t.Errorf("Velocity floor = %d, want 1", got)
	}
}

func TestSinger_CloseReleasesHeldNote(t *testing.T) {
	rec := midiout.NewRecorder()
	out := midiout.NewLedger(rec)
	s := NewSinger(testOptions(), out, nil, nil)
	voiced := sine(196, 0.5, 44100, 1024)
	_ = s.Process(voiced)
	_ = s.Process(voiced)
	if out.Sounding() != 2 {
		t.Fatalf("Sounding() = %d, want 2", out.Sounding())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if out.Sounding() != 0 {
		t.Errorf("Sounding() after Close = %d, want 0", out.Sounding())
	}
}

func TestBluesChords(t *testing.T) {
	chords := BluesChords(60, -1)
	if len(chords) != 12 {
		t.Fatalf("len = %d, want 12", len(chords))
	}
	want := map[int][]int{
		0: {48, 52, 55, 58},
		4: {53, 57, 60, 63},
		8: {55, 59, 62, 65},
	}
	for i, notes := range want {
		for j, n := range notes {
			if chords[i][j] != n {
				t.Errorf("chord %d = %v, want %v", i, chords[i], notes)
				break
			}
		}
	}
}

func TestAccompaniment_HoldReleaseAdvance(t *testing.T) {
	rec := midiout.NewRecorder()
	out := midiout.NewLedger(rec)
	acc := NewAccompaniment(out, 0, BluesChords(60, -1), 4, 30*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- acc.Run(ctx) }()

	acc.Trigger()
	waitFor(t, func() bool { return rec.Count(midiout.KindNoteOn) == 4 })
	if acc.Step() != 0 {
		t.Errorf("Step() while held = %d, want 0", acc.Step())
	}

	waitFor(t, func() bool { return rec.Count(midiout.KindNoteOff) == 4 })
	waitFor(t, func() bool { return acc.Step() == 1 })

	for _, ev := range rec.Events() {
		if ev.Kind == midiout.KindNoteOn && ev.Velocity != 4 {
			t.Errorf("velocity = %d, want 4", ev.Velocity)
		}
	}

	acc.Trigger()
	waitFor(t, func() bool { return rec.Count(midiout.KindNoteOn) == 8 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out.Sounding() != 0 {
		t.Errorf("Sounding() after cancel = %d, want 0", out.Sounding())
	}
}

func TestAccompaniment_OwnChannelKeepsSungNote(t *testing.T) {
	rec := midiout.NewRecorder()
	out := midiout.NewLedger(rec)
	// The first chord of BluesChords(60, -1) starts on 48.
	if err := out.NoteOn(0, 48, 90); err != nil {
		t.Fatal(err)
	}
	acc := NewAccompaniment(out, 1, BluesChords(60, -1), 4, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go acc.Run(ctx)

	acc.Trigger()
	waitFor(t, func() bool { return rec.Count(midiout.KindNoteOff) == 4 })

	for _, ev := range rec.Events() {
		if ev.Kind == midiout.KindNoteOff && ev.Channel == 0 {
			t.Errorf("chord release cut sung note %d", ev.Key)
		}
	}
	if out.Sounding() != 1 {
		t.Errorf("Sounding() = %d, want the sung note only", out.Sounding())
	}
}

func TestAccompaniment_TriggerNeverBlocks(t *testing.T) {
	acc := NewAccompaniment(nil, 0, nil, 4, time.Second, nil)
	for i := 0; i < 100; i++ {
		acc.Trigger()
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(2 * time.Millisecond)
	}
}
