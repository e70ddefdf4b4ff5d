package app

import (
	"context"
	"errors"
	"image"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"gocv.io/x/gocv"

	"github.com/ayusman/pianogames/internal/capture"
	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/detector"
	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/midiout"
	"github.com/ayusman/pianogames/internal/store"
	"github.com/ayusman/pianogames/testdata"
)

type fakeHub struct {
	mu    sync.Mutex
	kinds map[string]int
	last  map[string]any
}

func (h *fakeHub) Publish(kind string, v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.kinds == nil {
		h.kinds, h.last = map[string]int{}, map[string]any{}
	}
	h.kinds[kind]++
	h.last[kind] = v
	return nil
}

func (h *fakeHub) count(kind string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.kinds[kind]
}

type fakeFace struct {
	e      detector.Emotions
	closed bool
}

func (f *fakeFace) Read(frame *gocv.Mat) (detector.Emotions, image.Rectangle, bool, error) {
	return f.e, image.Rect(10, 10, 60, 60), true, nil
}

func (f *fakeFace) Close() error {
	f.closed = true
	return nil
}

type rig struct {
	app   *App
	cfg   config.Config
	rec   *midiout.Recorder
	store *store.Store
	hub   *fakeHub
	cam   *capture.MockCamera
	det   *detector.MockDetector
	face  *fakeFace
	audio *capture.MockAudio
	dir   string
	lock  string
}

func newRig(t *testing.T, mutate func(*config.Config), devs func(*Devices)) *rig {
	t.Helper()

	dir := t.TempDir()
	if err := testdata.WriteTables(dir); err != nil {
		t.Fatalf("WriteTables() error = %v", err)
	}
	s, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	frame := testdata.SolidFrame(90)
	t.Cleanup(func() { frame.Close() })

	r := &rig{
		rec:   midiout.NewRecorder(),
		store: s,
		hub:   &fakeHub{},
		cam:   capture.NewMockCamera([]*gocv.Mat{&frame}, true),
		det:   detector.NewMockDetector(),
		face:  &fakeFace{},
		audio: capture.NewMockAudio(44100),
		dir:   dir,
		lock:  filepath.Join(dir, "game.lock"),
	}

	cfg := config.Default()
	cfg.Paths.ChordsCSV = filepath.Join(dir, testdata.ChordsCSV)
	cfg.Paths.ProgressionsCSV = filepath.Join(dir, testdata.ProgressionsCSV)
	cfg.Paths.ExpressionCSV = filepath.Join(dir, testdata.ExpressionCSV)
	cfg.Paths.MusicRoot = filepath.Join(dir, "music")
	cfg.AirPiano.Window = false
	cfg.AirPiano.Seed = 7
	cfg.Mimipiano.Seed = 7
	cfg.Mimipiano.Manual = true
	cfg.Singing.Accompaniment = false
	if mutate != nil {
		mutate(&cfg)
	}
	r.cfg = cfg

	d := Devices{
		Output:  func([]string) (midiout.Sender, error) { return r.rec, nil },
		Outputs: func() ([]string, error) { return []string{"Synth A", "Synth B"}, nil },
		Camera: func(ids []int) (capture.Camera, int, error) {
			r.cam.Open()
			return r.cam, ids[0], nil
		},
		Hands: func(detector.Config) (detector.Detector, error) { return r.det, nil },
		Face:  func(string, string) (detector.FaceReader, error) { return r.face, nil },
		Audio: func(config.Singing, string) (capture.AudioSource, error) { return r.audio, nil },
	}
	if devs != nil {
		devs(&d)
	}

	r.app = New(Config{
		Settings: &cfg,
		Store:    s,
		Hub:      r.hub,
		Devices:  d,
		LockPath: r.lock,
	})
	return r
}

// checkSilenced asserts every note-on was matched by a note-off and the
// output was closed last.
func checkSilenced(t *testing.T, rec *midiout.Recorder) {
	t.Helper()
	events := rec.Events()
	if len(events) == 0 || events[len(events)-1].Kind != midiout.KindClose {
		t.Fatalf("output not closed last: %v", events)
	}
	sounding := map[[2]uint8]bool{}
	for _, ev := range events {
		k := [2]uint8{ev.Channel, ev.Key}
		switch ev.Kind {
		case midiout.KindNoteOn:
			if sounding[k] {
				t.Errorf("note-on for sounding note %v", k)
			}
			sounding[k] = true
		case midiout.KindNoteOff:
			delete(sounding, k)
		}
	}
	if len(sounding) > 0 {
		t.Errorf("notes left sounding at close: %v", sounding)
	}
}

func sine(freq, amp float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestMIDITest_PlaysScale(t *testing.T) {
	r := newRig(t, nil, nil)

	if err := r.app.MIDITest(context.Background()); err != nil {
		t.Fatalf("MIDITest() error = %v", err)
	}
	if got := r.rec.Count(midiout.KindNoteOn); got != len(TestScale) {
		t.Errorf("note-ons = %d, want %d", got, len(TestScale))
	}
	checkSilenced(t, r.rec)
}

func TestMIDITest_CancelReleasesNote(t *testing.T) {
	r := newRig(t, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), TestNoteLength/2)
	defer cancel()
	if err := r.app.MIDITest(ctx); err != nil {
		t.Fatalf("MIDITest() error = %v, want nil on cancel", err)
	}
	if got := r.rec.Count(midiout.KindNoteOn); got != 1 {
		t.Errorf("note-ons = %d, want 1", got)
	}
	checkSilenced(t, r.rec)
}

func TestConductor_PlaysFileAndRecordsSession(t *testing.T) {
	r := newRig(t, nil, nil)
	file := filepath.Join(r.dir, "fast.mid")
	if err := testdata.WriteSMF(file, 600); err != nil {
		t.Fatalf("WriteSMF() error = %v", err)
	}

	if err := r.app.Conductor(context.Background(), file); err != nil {
		t.Fatalf("Conductor() error = %v", err)
	}

	if got := r.rec.Count(midiout.KindNoteOn); got != 4 {
		t.Errorf("note-ons = %d, want 4", got)
	}
	if got := r.rec.Count(midiout.KindOther); got != 2 {
		t.Errorf("control changes = %d, want 2", got)
	}
	checkSilenced(t, r.rec)
	if r.cam.IsOpen() {
		t.Error("camera left open")
	}

	sessions, err := r.store.Sessions().Recent(5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	ps := sessions[0]
	if ps.Game != config.GameConductor || ps.Detail != "fast.mid" || ps.EndedAt == nil {
		t.Errorf("session = %+v", ps)
	}
	if ps.NotesSent != 10 {
		t.Errorf("notes sent = %d, want 10", ps.NotesSent)
	}
}

func TestConductor_BadFile(t *testing.T) {
	r := newRig(t, nil, nil)

	err := r.app.Conductor(context.Background(), filepath.Join(r.dir, "missing.mid"))
	if err == nil {
		t.Fatal("Conductor() error = nil for a missing file")
	}
	if !r.rec.Closed() {
		t.Error("output not closed after a failed start")
	}
}

func TestConductor_CameraUnavailable(t *testing.T) {
	r := newRig(t, nil, func(d *Devices) {
		d.Camera = func([]int) (capture.Camera, int, error) {
			return nil, -1, faults.Device(errors.New("no device"), "camera", "connect a webcam")
		}
	})
	file := filepath.Join(r.dir, "piece.mid")
	if err := testdata.WriteSMF(file, 600); err != nil {
		t.Fatalf("WriteSMF() error = %v", err)
	}

	err := r.app.Conductor(context.Background(), file)
	if !faults.Is(err, faults.DeviceUnavailable) {
		t.Fatalf("Conductor() error = %v, want a device failure", err)
	}
	if !r.rec.Closed() {
		t.Error("output not released after the camera failed")
	}
}

func TestPlay_OutputUnavailable(t *testing.T) {
	r := newRig(t, nil, func(d *Devices) {
		d.Output = func([]string) (midiout.Sender, error) {
			return nil, faults.Device(faults.ErrNoOutputs, "MIDI output", "connect a device")
		}
	})

	err := r.app.MIDITest(context.Background())
	if !errors.Is(err, faults.ErrNoOutputs) {
		t.Fatalf("MIDITest() error = %v, want ErrNoOutputs", err)
	}
	sessions, _ := r.store.Sessions().Recent(5)
	if len(sessions) != 0 {
		t.Errorf("a session was recorded for a game that never started")
	}
}

func TestPlay_LockedByAnotherGame(t *testing.T) {
	r := newRig(t, nil, nil)

	other := flock.New(r.lock)
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock() = %v, %v", ok, err)
	}

	if err := r.app.MIDITest(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("MIDITest() error = %v, want ErrBusy", err)
	}
	if len(r.rec.Events()) != 0 {
		t.Error("output was opened while the lock was held")
	}

	if err := other.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.app.MIDITest(ctx); err != nil {
		t.Fatalf("MIDITest() after unlock error = %v", err)
	}
}

func TestPlay_PanicStillClosesOutput(t *testing.T) {
	r := newRig(t, nil, func(d *Devices) {
		d.Hands = func(detector.Config) (detector.Detector, error) {
			panic("detector exploded")
		}
	})

	err := r.app.AirPiano(context.Background(), AirPianoOptions{})
	if err == nil {
		t.Fatal("AirPiano() error = nil after a panic")
	}
	if !r.rec.Closed() {
		t.Error("output not closed after a panic")
	}
	if r.cam.IsOpen() {
		t.Error("camera left open after a panic")
	}
}

func TestSing_SungNoteIsReleasedAtEnd(t *testing.T) {
	r := newRig(t, nil, nil)
	voiced := sine(196, 0.5, 44100, 1024)
	r.audio = capture.NewMockAudio(44100, voiced, voiced, voiced, voiced)

	if err := r.app.Sing(context.Background(), ""); err != nil {
		t.Fatalf("Sing() error = %v", err)
	}

	var keys []uint8
	for _, ev := range r.rec.Events() {
		if ev.Kind == midiout.KindNoteOn {
			keys = append(keys, ev.Key)
		}
	}
	if len(keys) != 2 || keys[0] != 67 || keys[1] != 79 {
		t.Errorf("note-ons = %v, want [67 79]", keys)
	}
	checkSilenced(t, r.rec)
	if !r.audio.Closed() {
		t.Error("audio source left open")
	}
	if r.hub.count(config.GameSinging) == 0 {
		t.Error("no singing state published")
	}
}

func TestSing_WithAccompaniment(t *testing.T) {
	r := newRig(t, func(c *config.Config) {
		c.Singing.Accompaniment = true
		c.Singing.AccompanimentHoldMS = 20
	}, nil)
	voiced := sine(196, 0.5, 44100, 1024)
	blocks := make([][]float64, 6)
	for i := range blocks {
		blocks[i] = voiced
	}
	r.audio = capture.NewMockAudio(44100, blocks...)

	if err := r.app.Sing(context.Background(), ""); err != nil {
		t.Fatalf("Sing() error = %v", err)
	}
	checkSilenced(t, r.rec)

	accCh := uint8(r.cfg.Singing.AccompanimentChannel)
	for _, ev := range r.rec.Events() {
		if ev.Kind != midiout.KindNoteOn {
			continue
		}
		if ev.Channel == accCh && ev.Velocity != uint8(r.cfg.Singing.AccompanimentVelocity) {
			t.Errorf("accompaniment note %d velocity = %d", ev.Key, ev.Velocity)
		}
		if ev.Channel != accCh && ev.Channel != uint8(r.cfg.Singing.Channel) {
			t.Errorf("note %d on channel %d", ev.Key, ev.Channel)
		}
	}
}

func TestMimi_ManualPlaysRandomPiece(t *testing.T) {
	r := newRig(t, nil, nil)
	if err := testdata.WriteLibrary(r.cfg.Paths.MusicRoot, "C", "only.mid"); err != nil {
		t.Fatalf("WriteLibrary() error = %v", err)
	}

	if err := r.app.Mimi(context.Background(), MimiOptions{}); err != nil {
		t.Fatalf("Mimi() error = %v", err)
	}
	if got := r.rec.Count(midiout.KindNoteOn); got != 4 {
		t.Errorf("note-ons = %d, want 4", got)
	}
	checkSilenced(t, r.rec)
	if r.cam.IsOpen() {
		t.Error("manual mode opened the camera")
	}

	sessions, _ := r.store.Sessions().Recent(1)
	if len(sessions) != 1 || sessions[0].Detail != "only.mid" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestMimi_FaceDrivesMood(t *testing.T) {
	r := newRig(t, func(c *config.Config) { c.Mimipiano.Manual = false }, nil)
	r.face.e[detector.Surprise] = 1
	file := filepath.Join(r.dir, "piece.mid")
	if err := testdata.WriteSMF(file, 60); err != nil {
		t.Fatalf("WriteSMF() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()
	if err := r.app.Mimi(ctx, MimiOptions{File: file}); err != nil {
		t.Fatalf("Mimi() error = %v", err)
	}

	checkSilenced(t, r.rec)
	if !r.face.closed {
		t.Error("face reader not closed")
	}
	r.hub.mu.Lock()
	st, ok := r.hub.last[config.GameMimipiano].(MoodState)
	r.hub.mu.Unlock()
	if !ok || st.Special != 100 || st.File != "piece.mid" {
		t.Errorf("last mood = %+v, want special 100 for piece.mid", st)
	}
}

func TestMimi_EmptyKey(t *testing.T) {
	r := newRig(t, nil, nil)

	if err := r.app.Mimi(context.Background(), MimiOptions{}); err == nil {
		t.Fatal("Mimi() error = nil with an empty library")
	}
	if len(r.rec.Events()) != 0 {
		t.Error("output opened with nothing to play")
	}
}

func TestSettings_SavedOverlay(t *testing.T) {
	r := newRig(t, nil, nil)

	if err := r.store.Settings().Set(config.GameConductor, `{"sensitivity": 4}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := r.app.Settings(config.GameConductor).Conductor.Sensitivity; got != 4 {
		t.Errorf("sensitivity = %v, want 4", got)
	}

	if err := r.store.Settings().Set(config.GameConductor, `{"min_bpm": 500}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := r.app.Settings(config.GameConductor).Conductor.MinBPM; got != r.cfg.Conductor.MinBPM {
		t.Errorf("invalid saved settings applied: min_bpm = %v", got)
	}
}

func TestSaveSettings(t *testing.T) {
	r := newRig(t, nil, nil)

	cfg := r.app.Settings(config.GameSinging)
	cfg.Singing.Window = 5
	if err := r.app.SaveSettings(config.GameSinging, cfg); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	raw, err := r.store.Settings().Get(config.GameSinging)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := r.app.Settings(config.GameSinging).Singing.Window; got != 5 {
		t.Errorf("window = %d, want 5 (stored %s)", got, raw)
	}

	cfg.Singing.MinFreq = 2000
	if err := r.app.SaveSettings(config.GameSinging, cfg); err == nil {
		t.Error("SaveSettings() accepted min_freq above max_freq")
	}
	if got := r.app.Settings(config.GameSinging).Singing.MinFreq; got == 2000 {
		t.Error("rejected settings were kept")
	}
}
