// Package session runs one air piano performance: detected hands come in as
// frames, fingers are tracked, the current chord of a progression is mapped
// onto notes for each hand, and MIDI goes out. A beat clock advances the
// progression independently of the player.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/chord"
	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/detector"
	"github.com/ayusman/pianogames/internal/gesture"
	"github.com/ayusman/pianogames/internal/logging"
	"github.com/ayusman/pianogames/internal/notes"
	"github.com/ayusman/pianogames/internal/util"
)

// MoodDebounce is how long RequestMood waits for requests to settle.
const MoodDebounce = 300 * time.Millisecond

var (
	// ErrNoProgressions is returned when the session has nothing to play.
	ErrNoProgressions = errors.New("no chord progressions loaded")
	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("session closed")
)

// ChordSource resolves chord names for the hands.
type ChordSource interface {
	notes.PCSource
	BassPC(name string) (int, bool)
}

// Output is where the session's notes go. midiout.Ledger implements it.
type Output interface {
	notes.NoteSender
	Close() error
}

// FrameEvent is one camera frame's detection result. Width and Height are the
// frame size in pixels, used to place particles.
type FrameEvent struct {
	Hands  []detector.HandLandmarks
	Width  int
	Height int
	At     time.Time
}

// State is a snapshot of the session for displays.
type State struct {
	Progression string `json:"progression"`
	Chord       string `json:"chord"`
	Step        int    `json:"step"`
	Steps       int    `json:"steps"`
	Paused      bool   `json:"paused"`
	Left        []int  `json:"left"`
	Right       []int  `json:"right"`
	Bass        *int   `json:"bass,omitempty"`
	Particles   int    `json:"particles"`
	Dropped     int    `json:"dropped"`
}

type plan struct {
	h    *hand
	want []int
	vel  int
}

// Session is a running air piano.
type Session struct {
	cfg    config.AirPiano
	chords ChordSource
	progs  []chord.Progression
	out    Output
	log    *zap.Logger
	frames chan FrameEvent

	// ioMu serializes everything that sends MIDI; it is taken before mu.
	ioMu sync.Mutex

	mu          sync.Mutex
	rng         *rand.Rand
	left, right *hand
	progIdx     int
	step        int
	lastChord   string
	bass        *notes.BassTrigger
	heldBass    *int
	paused      bool
	closed      bool
	particles   *Particles
	lastFrame   time.Time
	dropped     int
	notesOn     int
	leftActive  []int
	rightActive []int
	listeners   []func(State)

	moodDebounced func(func())
}

// New creates a session. The first progression is picked at random.
func New(cfg config.AirPiano, chords ChordSource, progs []chord.Progression, out Output, logger *zap.Logger) (*Session, error) {
	if len(progs) == 0 {
		return nil, ErrNoProgressions
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	th := gesture.Thresholds{Press: cfg.PressAngle, Release: cfg.ReleaseAngle}
	anchor := notes.AnchorFirstPress
	if cfg.BassAnchor == config.BassAnchorChordChange {
		anchor = notes.AnchorChordChange
	}

	s := &Session{
		cfg:    cfg,
		chords: chords,
		progs:  progs,
		out:    out,
		log:    logging.OrNop(logger),
		frames: make(chan FrameEvent, max(1, cfg.FrameQueue)),
		rng:    rand.New(rand.NewSource(seed)),
		left: newHand(detector.Left, uint8(util.Clamp(cfg.LeftChannel, 0, 15)),
			notes.Register{Low: cfg.LeftLow, High: cfg.LeftHigh}, th, cfg.UseThumb),
		right: newHand(detector.Right, uint8(util.Clamp(cfg.RightChannel, 0, 15)),
			notes.Register{Low: cfg.RightLow, High: cfg.RightHigh}, th, cfg.UseThumb),
		bass:          notes.NewBassTrigger(time.Duration(cfg.SimulWindowMS)*time.Millisecond, anchor),
		particles:     NewParticles(cfg.MaxParticles),
		moodDebounced: debounce.New(MoodDebounce),
	}
	s.progIdx = chord.Pick(s.rng, progs)
	s.log.Info("air piano ready",
		zap.String("progression", progs[s.progIdx].Name),
		zap.Int("progressions", len(progs)),
		zap.Int64("seed", seed))
	return s, nil
}

// OnState registers fn to receive a snapshot after every frame and beat.
// fn runs on the session goroutine and must not block.
func (s *Session) OnState(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Submit queues a frame for Run. A full queue drops the frame and Submit
// returns false.
func (s *Session) Submit(ev FrameEvent) bool {
	select {
	case s.frames <- ev:
		return true
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		return false
	}
}

// Run processes queued frames and drives the beat clock until ctx ends. It
// returns the error of a frame that panicked; the notes are already released
// in that case. Close must still be called.
func (s *Session) Run(ctx context.Context) error {
	beat := time.Duration(float64(time.Minute) / max(1, s.cfg.BPM))
	ticker := time.NewTicker(beat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick()
		case ev := <-s.frames:
			if err := s.ProcessFrame(ev); err != nil {
				if errors.Is(err, ErrClosed) {
					return nil
				}
				return err
			}
		}
	}
}

// Tick advances the progression by one beat.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if n := s.progs[s.progIdx].Len(); n > 0 {
		s.step = (s.step + 1) % n
	}
	st, ls := s.snapshotLocked(), s.listeners
	s.mu.Unlock()
	publish(ls, st)
}

// ProcessFrame applies one frame. A panic inside is recovered: every note is
// released and the panic is returned as an error.
func (s *Session) ProcessFrame(ev FrameEvent) (err error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("air piano frame: %v", r)
			s.log.Error("frame processing panicked; releasing notes", zap.Any("panic", r))
			if rerr := s.releaseAllIO(); rerr != nil {
				s.log.Warn("release after panic", zap.Error(rerr))
			}
		}
	}()

	plans, ok := s.decide(ev)
	if !ok {
		return ErrClosed
	}

	started := 0
	for _, p := range plans {
		before := p.h.voice.Active()
		if err := p.h.voice.Apply(s.out, p.want, p.vel); err != nil {
			s.log.Warn("midi send failed", zap.String("hand", p.h.label), zap.Error(err))
		}
		started += countNew(before, p.h.voice.Active())
	}

	s.mu.Lock()
	s.notesOn += started
	s.leftActive = s.left.voice.Active()
	s.rightActive = s.right.voice.Active()
	st, ls := s.snapshotLocked(), s.listeners
	s.mu.Unlock()

	publish(ls, st)
	return nil
}

// decide updates the session from ev and decides what each hand should sound.
// ok is false once the session is closed.
func (s *Session) decide(ev FrameEvent) (plans []plan, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}

	now := ev.At
	if now.IsZero() {
		now = time.Now()
	}
	dt := 0.0
	if !s.lastFrame.IsZero() {
		dt = now.Sub(s.lastFrame).Seconds()
	}
	s.lastFrame = now
	s.particles.Update(util.Clamp(dt, 1e-3, 0.05), ev.Width, ev.Height)

	lm := map[*hand]*detector.HandLandmarks{}
	lm[s.left], lm[s.right] = detector.SplitHands(ev.Hands)
	for _, h := range []*hand{s.left, s.right} {
		for _, p := range h.observe(lm[h], s.cfg.SmoothAlpha) {
			if !s.paused {
				s.particles.Spawn(s.rng, p.TipX*float64(ev.Width), p.TipY*float64(ev.Height), 6+s.rng.Intn(7))
			}
		}
	}

	name := s.progs[s.progIdx].At(s.step)
	if name != s.lastChord {
		s.lastChord = name
		s.bass.ChordChanged(now)
		s.heldBass = nil
		s.log.Debug("chord", zap.String("chord", name), zap.Int("step", s.step))
	}

	for _, h := range []*hand{s.left, s.right} {
		if !h.present {
			h.prevDown = 0
			h.pcs = nil
			continue
		}
		if (h.prevDown == 0 && h.down > 0) || h.pressedNow > 0 {
			h.pcs = notes.ChoosePCs(s.rng, s.chords, name, h.pressedNow)
		}
		h.prevDown = h.down
	}

	total := s.left.downIfPresent() + s.right.downIfPresent()
	if total == 0 {
		s.heldBass = nil
	}
	if s.bass.Update(now, total, s.left.downIfPresent()) {
		if pc, ok := s.chords.BassPC(name); ok {
			s.heldBass = &pc
			s.log.Debug("bass fired", zap.String("chord", name), zap.Int("pc", pc))
		}
	}

	plans = make([]plan, 0, 2)
	for _, h := range []*hand{s.left, s.right} {
		if total == 0 || s.paused {
			plans = append(plans, plan{h: h})
			continue
		}
		r := h.voice.Register
		center := notes.XToCenter(h.x(), r)
		var bass *int
		if h == s.left && h.present {
			bass = s.heldBass
		}
		plans = append(plans, plan{
			h:    h,
			want: h.voice.Want(h.pcs, center, bass),
			vel:  notes.Velocity(center, r, notes.VelocityRange{Min: s.cfg.VelMin, Max: s.cfg.VelMax}),
		})
	}
	return plans, true
}

// TogglePause flips the pause flag. Pausing releases every note at once.
func (s *Session) TogglePause() bool {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	s.mu.Lock()
	s.paused = !s.paused
	paused := s.paused
	s.mu.Unlock()

	if paused {
		if err := s.releaseAllIO(); err != nil {
			s.log.Warn("release on pause", zap.Error(err))
		}
	}
	s.log.Info("pause toggled", zap.Bool("paused", paused))
	return paused
}

// ChangeMood switches to a random progression from its first step.
func (s *Session) ChangeMood() {
	s.mu.Lock()
	s.progIdx = chord.Pick(s.rng, s.progs)
	s.step = 0
	s.lastChord = ""
	s.heldBass = nil
	s.bass.Reset()
	name := s.progs[s.progIdx].Name
	st, ls := s.snapshotLocked(), s.listeners
	s.mu.Unlock()

	s.log.Info("mood changed", zap.String("progression", name))
	publish(ls, st)
}

// RequestMood asks for a mood change; bursts of requests collapse into one.
func (s *Session) RequestMood() {
	s.moodDebounced(s.ChangeMood)
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Particles returns a copy of the live particles.
func (s *Session) Particles() []Particle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.particles.All()
}

// NotesOn returns how many notes were started.
func (s *Session) NotesOn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notesOn
}

// Close releases every sounding note and then closes the output. Only the
// first call does anything.
func (s *Session) Close() error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	errRelease := s.releaseAllIO()
	errClose := s.out.Close()
	s.log.Info("air piano closed")
	return errors.Join(errRelease, errClose)
}

// releaseAllIO silences both hands. Called with ioMu held.
func (s *Session) releaseAllIO() error {
	errL := s.left.voice.ReleaseAll(s.out)
	errR := s.right.voice.ReleaseAll(s.out)

	s.mu.Lock()
	s.leftActive, s.rightActive = nil, nil
	s.mu.Unlock()
	return errors.Join(errL, errR)
}

func (s *Session) snapshotLocked() State {
	p := s.progs[s.progIdx]
	st := State{
		Progression: p.Name,
		Chord:       p.At(s.step),
		Step:        s.step,
		Steps:       p.Len(),
		Paused:      s.paused,
		Left:        append([]int(nil), s.leftActive...),
		Right:       append([]int(nil), s.rightActive...),
		Particles:   s.particles.Len(),
		Dropped:     s.dropped,
	}
	if s.heldBass != nil {
		b := *s.heldBass
		st.Bass = &b
	}
	return st
}

// countNew counts the notes of after that are missing from before. Both are
// ascending.
func countNew(before, after []int) int {
	n, i := 0, 0
	for _, a := range after {
		for i < len(before) && before[i] < a {
			i++
		}
		if i >= len(before) || before[i] != a {
			n++
		}
	}
	return n
}

func publish(ls []func(State), st State) {
	for _, fn := range ls {
		fn(st)
	}
}
