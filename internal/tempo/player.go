package tempo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/logging"
)

// DefaultBPM is the base tempo of a file without a tempo event.
const DefaultBPM = 120.0

// Event is a playable message at its native time from the start of the file.
type Event struct {
	At  time.Duration
	Msg midi.Message
}

// Score is a standard MIDI file flattened to one time-ordered event list.
// Meta events are dropped; tempo changes are already folded into At.
type Score struct {
	Events  []Event
	BaseBPM float64
	Tracks  int
}

// Duration returns the native length of the score.
func (s *Score) Duration() time.Duration {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].At
}

// ReadScore loads and flattens a standard MIDI file.
func ReadScore(path string) (score *Score, err error) {
	// smf.ReadFrom panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse midi file %s: %v", path, r)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read midi file: %w", err)
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse midi file %s: %w", path, err)
	}
	return FromSMF(s), nil
}

// BaseTempo returns the first tempo event found scanning tracks in order, or
// def when the file has none.
func BaseTempo(s *smf.SMF, def float64) float64 {
	for _, track := range s.Tracks {
		for _, ev := range track {
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				return bpm
			}
		}
	}
	return def
}

// FromSMF merges all tracks by absolute time. Events at the same tick keep
// track order.
func FromSMF(s *smf.SMF) *Score {
	type timed struct {
		tick  int64
		track int
		seq   int
		msg   smf.Message
	}

	var all []timed
	for ti, track := range s.Tracks {
		var abs int64
		for i, ev := range track {
			abs += int64(ev.Delta)
			if ev.Message.IsMeta() {
				continue
			}
			all = append(all, timed{tick: abs, track: ti, seq: i, msg: ev.Message})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].tick != all[j].tick {
			return all[i].tick < all[j].tick
		}
		if all[i].track != all[j].track {
			return all[i].track < all[j].track
		}
		return all[i].seq < all[j].seq
	})

	score := &Score{
		Events:  make([]Event, 0, len(all)),
		BaseBPM: BaseTempo(s, DefaultBPM),
		Tracks:  len(s.Tracks),
	}
	for _, t := range all {
		score.Events = append(score.Events, Event{
			At:  time.Duration(s.TimeAt(t.tick)) * time.Microsecond,
			Msg: midi.Message(t.msg),
		})
	}
	return score
}

// Sender receives the played messages.
type Sender interface {
	Send(msg midi.Message) error
}

// StretchFunc returns the current factor applied to the wait before the next
// event. 1 plays at native speed.
type StretchFunc func() float64

// Player plays a Score through a Sender.
type Player struct {
	out   Sender
	log   *zap.Logger
	sleep func(ctx context.Context, d time.Duration) error
	sent  int
}

// NewPlayer creates a player writing to out.
func NewPlayer(out Sender, logger *zap.Logger) *Player {
	return &Player{out: out, log: logging.OrNop(logger), sleep: sleepCtx}
}

// Sent returns the number of messages sent by the last Play.
func (p *Player) Sent() int {
	return p.sent
}

// Play sends every event, waiting the native gap times stretch() before
// each one. It returns ctx.Err() when cancelled. A nil stretch plays at
// native speed.
func (p *Player) Play(ctx context.Context, score *Score, stretch StretchFunc) error {
	if stretch == nil {
		stretch = func() float64 { return 1 }
	}
	p.sent = 0

	var prev time.Duration
	for _, ev := range score.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		gap := ev.At - prev
		prev = ev.At

		if wait := time.Duration(float64(gap) * stretch()); wait > 0 {
			if err := p.sleep(ctx, wait); err != nil {
				return err
			}
		}
		if err := p.out.Send(ev.Msg); err != nil {
			p.log.Debug("send failed", zap.Stringer("msg", ev.Msg), zap.Error(err))
			continue
		}
		p.sent++
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ErrEmptyScore is returned by games asked to play a file with no events.
var ErrEmptyScore = errors.New("midi file has no playable events")
