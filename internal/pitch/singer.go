package pitch

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/logging"
	"github.com/ayusman/pianogames/internal/util"
)

// Options tune the voice path.
type Options struct {
	SampleRate     int
	MinFreq        float64
	MaxFreq        float64
	RMSThreshold   float64
	OctaveShift    int
	Doubling       int
	VelocityScale  float64
	VelocityOffset float64
	Window         int
	Debounce       int
	Channel        uint8
	Scale          Scale
}

// OptionsFrom reads the singing settings.
func OptionsFrom(c config.Singing) Options {
	scale := Chromatic()
	if c.Scale == config.ScaleBlues {
		scale = NewScale(c.ScaleRoot, c.ScaleSteps)
	}
	return Options{
		SampleRate:     c.SampleRate,
		MinFreq:        c.MinFreq,
		MaxFreq:        c.MaxFreq,
		RMSThreshold:   c.RMSThreshold,
		OctaveShift:    c.OctaveShift,
		Doubling:       max(0, c.OctaveDoubling),
		VelocityScale:  c.VelocityScale,
		VelocityOffset: c.VelocityOffset,
		Window:         c.Window,
		Debounce:       c.Debounce,
		Channel:        uint8(util.Clamp(c.Channel, 0, 15)),
		Scale:          scale,
	}
}

// Singer runs the whole voice path for one audio block: gate, detect, snap,
// debounce and send. A nil accompaniment is allowed.
type Singer struct {
	opts Options
	q    *Quantizer
	out  NoteSender
	acc  *Accompaniment
	log  *zap.Logger

	notesOn int
}

// NewSinger creates a Singer writing to out.
func NewSinger(opts Options, out NoteSender, acc *Accompaniment, logger *zap.Logger) *Singer {
	if len(opts.Scale) == 0 {
		opts.Scale = Chromatic()
	}
	return &Singer{
		opts: opts,
		q:    NewQuantizer(opts.Window, opts.Debounce),
		out:  out,
		acc:  acc,
		log:  logging.OrNop(logger),
	}
}

// Detect returns the scale note heard in block, or Silence, along with the
// block's RMS.
func (s *Singer) Detect(block []float64) (note int, rms float64) {
	rms = RMS(block)
	if rms < s.opts.RMSThreshold {
		return Silence, rms
	}
	freq, ok := EstimateFrequency(block, s.opts.SampleRate)
	if !ok || freq <= s.opts.MinFreq || freq >= s.opts.MaxFreq {
		return Silence, rms
	}
	raw := util.ClampNote(FreqToMIDI(freq) + s.opts.OctaveShift*12)
	return s.opts.Scale.Snap(raw), rms
}

// Velocity maps block loudness to a note-on velocity in 1..127.
func (s *Singer) Velocity(rms float64) int {
	v := math.Min(127, math.Max(1, rms*s.opts.VelocityScale+s.opts.VelocityOffset))
	return int(v)
}

// Process handles one audio block.
func (s *Singer) Process(block []float64) error {
	note, rms := s.Detect(block)
	if note != Silence && s.acc != nil {
		s.acc.Trigger()
	}

	d := s.q.Push(note)
	if !d.Changed() {
		return nil
	}

	var errs []error
	if d.Off != Silence {
		errs = append(errs, s.release(d.Off))
		s.log.Debug("note off", zap.Int("note", d.Off))
	}
	if d.On != Silence {
		vel := s.Velocity(rms)
		errs = append(errs, s.sound(d.On, vel))
		s.notesOn++
		s.log.Debug("note on", zap.Int("note", d.On), zap.Int("velocity", vel))
	}
	return errors.Join(errs...)
}

// Current returns the sounding note or Silence.
func (s *Singer) Current() int {
	return s.q.Current()
}

// NotesOn returns how many notes were started.
func (s *Singer) NotesOn() int {
	return s.notesOn
}

// Close releases the sounding note and its doublings.
func (s *Singer) Close() error {
	if n := s.q.Reset(); n != Silence {
		return s.release(n)
	}
	return nil
}

func (s *Singer) sound(note, vel int) error {
	var errs []error
	for _, n := range s.doubled(note) {
		errs = append(errs, s.out.NoteOn(s.opts.Channel, uint8(n), uint8(vel)))
	}
	return errors.Join(errs...)
}

func (s *Singer) release(note int) error {
	var errs []error
	for _, n := range s.doubled(note) {
		errs = append(errs, s.out.NoteOff(s.opts.Channel, uint8(n)))
	}
	return errors.Join(errs...)
}

func (s *Singer) doubled(note int) []int {
	out := make([]int, 0, s.opts.Doubling+1)
	for k := 0; k <= s.opts.Doubling; k++ {
		if n := note + 12*k; n >= 0 && n <= 127 {
			out = append(out, n)
		}
	}
	return out
}
