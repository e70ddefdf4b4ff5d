package app

import (
	"context"
	"time"

	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/midiout"
)

// TestScale is the C major scale played by MIDITest.
var TestScale = []uint8{60, 62, 64, 65, 67, 69, 71, 72}

// TestNoteLength is how long each scale note sounds.
const TestNoteLength = 200 * time.Millisecond

// MIDITest plays TestScale to check the output port.
func (a *App) MIDITest(ctx context.Context) error {
	cfg := a.Settings(config.GameMIDITest)
	return a.play(ctx, config.GameMIDITest, "", cfg, func(ctx context.Context, out *midiout.Ledger) error {
		for _, n := range TestScale {
			if err := out.NoteOn(0, n, 100); err != nil {
				return err
			}
			if err := sleepCtx(ctx, TestNoteLength); err != nil {
				return err
			}
			if err := out.NoteOff(0, n); err != nil {
				return err
			}
		}
		return nil
	})
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
