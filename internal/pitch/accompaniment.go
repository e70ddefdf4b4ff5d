package pitch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/logging"
	"github.com/ayusman/pianogames/internal/util"
)

// ChordSteps is the twelve-bar blues root movement in semitones.
var ChordSteps = []int{0, 0, 0, 0, 5, 5, 0, 0, 7, 5, 0, 7}

// ChordIntervals voices each chord as a dominant seventh.
var ChordIntervals = []int{0, 4, 7, 10}

// NoteSender sends single note events. midiout.Ledger implements it.
type NoteSender interface {
	NoteOn(ch, key, vel uint8) error
	NoteOff(ch, key uint8) error
}

// BluesChords returns the twelve accompaniment chords built on root shifted
// by octaveShift octaves.
func BluesChords(root, octaveShift int) [][]int {
	chords := make([][]int, len(ChordSteps))
	for i, step := range ChordSteps {
		base := root + step + octaveShift*12
		for _, iv := range ChordIntervals {
			chords[i] = append(chords[i], util.ClampNote(base+iv))
		}
	}
	return chords
}

// Accompaniment holds a soft chord while the singer keeps producing pitched
// blocks. The first trigger sounds the current chord; once no trigger has
// arrived for the hold time the chord is released and the next one is
// queued.
type Accompaniment struct {
	out     NoteSender
	channel uint8
	vel     uint8
	hold    time.Duration
	chords  [][]int
	trigger chan struct{}
	log     *zap.Logger

	mu   sync.Mutex
	step int
}

// NewAccompaniment creates an accompaniment that plays chords on channel.
func NewAccompaniment(out NoteSender, channel uint8, chords [][]int, vel int, hold time.Duration, logger *zap.Logger) *Accompaniment {
	return &Accompaniment{
		out:     out,
		channel: channel,
		vel:     uint8(util.Clamp(vel, 0, 127)),
		hold:    hold,
		chords:  chords,
		trigger: make(chan struct{}, 1),
		log:     logging.OrNop(logger),
	}
}

// Trigger signals a voiced block. It never blocks.
func (a *Accompaniment) Trigger() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// Step returns the index of the chord that plays next.
func (a *Accompaniment) Step() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.step
}

// Run plays chords until ctx is done. A sounding chord is released before
// Run returns.
func (a *Accompaniment) Run(ctx context.Context) error {
	if len(a.chords) == 0 {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.trigger:
		}

		chord := a.chords[a.Step()]
		errOn := a.send(chord, true)
		a.log.Debug("accompaniment chord", zap.Int("step", a.Step()), zap.Ints("notes", chord))

		held := a.holdWhileTriggered(ctx)
		errOff := a.send(chord, false)
		if err := errors.Join(errOn, errOff); err != nil {
			a.log.Warn("accompaniment send failed", zap.Error(err))
		}
		if !held {
			return nil
		}

		a.mu.Lock()
		a.step = (a.step + 1) % len(a.chords)
		a.mu.Unlock()
	}
}

// holdWhileTriggered waits until the hold time passes without a trigger. It
// returns false when ctx ended first.
func (a *Accompaniment) holdWhileTriggered(ctx context.Context) bool {
	timer := time.NewTimer(a.hold)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-a.trigger:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(a.hold)
		case <-timer.C:
			return true
		}
	}
}

func (a *Accompaniment) send(chord []int, on bool) error {
	var errs []error
	for _, n := range chord {
		var err error
		if on {
			err = a.out.NoteOn(a.channel, uint8(n), a.vel)
		} else {
			err = a.out.NoteOff(a.channel, uint8(n))
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
