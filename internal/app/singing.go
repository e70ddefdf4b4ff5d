package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/midiout"
	"github.com/ayusman/pianogames/internal/pitch"
	"github.com/ayusman/pianogames/internal/util"
)

// SingingState is published when the sung note changes.
type SingingState struct {
	Note int     `json:"note"`
	RMS  float64 `json:"rms"`
}

// Sing turns the voice into MIDI notes. wavPath reads a WAV file in real time
// instead of the microphone; the game ends with the file.
func (a *App) Sing(ctx context.Context, wavPath string) error {
	cfg := a.Settings(config.GameSinging)
	detail := ""
	if wavPath != "" {
		detail = filepath.Base(wavPath)
	}
	return a.play(ctx, config.GameSinging, detail, cfg, func(ctx context.Context, out *midiout.Ledger) error {
		return a.sing(ctx, cfg.Singing, wavPath, out)
	})
}

func (a *App) sing(ctx context.Context, cfg config.Singing, wavPath string, out *midiout.Ledger) error {
	src, err := a.devices.Audio(cfg, wavPath)
	if err != nil {
		return err
	}
	defer src.Close()

	opts := pitch.OptionsFrom(cfg)
	opts.SampleRate = src.SampleRate()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var acc *pitch.Accompaniment
	if cfg.Accompaniment {
		acc = pitch.NewAccompaniment(out,
			uint8(util.Clamp(cfg.AccompanimentChannel, 0, 15)),
			pitch.BluesChords(cfg.ScaleRoot, cfg.AccOctaveShift),
			cfg.AccompanimentVelocity,
			time.Duration(cfg.AccompanimentHoldMS)*time.Millisecond,
			a.log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := acc.Run(ctx); err != nil {
				a.log.Warn("accompaniment stopped", zap.Error(err))
			}
		}()
	}

	singer := pitch.NewSinger(opts, out, acc, a.log)
	defer func() {
		if err := singer.Close(); err != nil {
			a.log.Warn("releasing sung note", zap.Error(err))
		}
	}()

	a.log.Info("listening",
		zap.Int("sample_rate", opts.SampleRate),
		zap.String("scale", cfg.Scale),
		zap.Bool("accompaniment", acc != nil))

	err = a.listen(ctx, src.ReadBlock, singer)
	cancel()
	wg.Wait()
	return err
}

// listen feeds blocks to the singer until the source ends. Failed blocks are
// dropped.
func (a *App) listen(ctx context.Context, read func(context.Context) ([]float64, error), singer *pitch.Singer) error {
	last := pitch.Silence
	for {
		block, err := read(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			a.log.Debug("audio block dropped", zap.Error(err))
			continue
		}
		if err := singer.Process(block); err != nil {
			a.log.Warn("midi send failed", zap.Error(err))
		}
		if cur := singer.Current(); cur != last {
			last = cur
			a.publish(config.GameSinging, SingingState{Note: cur, RMS: pitch.RMS(block)})
		}
	}
}
