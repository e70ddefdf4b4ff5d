package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/capture"
	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/midiout"
	"github.com/ayusman/pianogames/internal/tempo"
)

// ConductorState is published while the conductor plays.
type ConductorState struct {
	File    string  `json:"file"`
	Level   float64 `json:"level"`
	BaseBPM float64 `json:"base_bpm"`
	BPM     float64 `json:"bpm"`
}

// Conductor plays file at a tempo that follows the motion in front of the
// camera. It returns when the file ends or ctx is done.
func (a *App) Conductor(ctx context.Context, file string) error {
	cfg := a.Settings(config.GameConductor)
	return a.play(ctx, config.GameConductor, filepath.Base(file), cfg, func(ctx context.Context, out *midiout.Ledger) error {
		return a.conduct(ctx, cfg, file, out)
	})
}

func (a *App) conduct(ctx context.Context, cfg config.Config, file string, out *midiout.Ledger) error {
	score, err := tempo.ReadScore(file)
	if err != nil {
		return err
	}
	if len(score.Events) == 0 {
		return fmt.Errorf("%s: %w", file, tempo.ErrEmptyScore)
	}

	cam, id, err := a.devices.Camera([]int{cfg.Conductor.Camera})
	if err != nil {
		return err
	}
	defer cam.Close()

	meter := capture.NewMotionMeter()
	defer meter.Close()

	smoother := tempo.NewSmoother(cfg.Conductor.Smoothing)
	mapper := tempo.NewMapper(cfg.Conductor)
	watcher := &motionWatcher{
		meter:    meter,
		smoother: smoother,
		onLevel: func(level float64) {
			a.publish(config.GameConductor, ConductorState{
				File:    filepath.Base(file),
				Level:   level,
				BaseBPM: score.BaseBPM,
				BPM:     mapper.Tempo(score.BaseBPM, level),
			})
		},
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := frameLoop(ctx, cam, FrameFPS, a.log, watcher.handle); err != nil && ctx.Err() == nil {
			a.log.Warn("camera stopped; tempo stays at its last level", zap.Error(err))
		}
	}()

	a.log.Info("conducting",
		zap.String("file", file),
		zap.Int("camera", id),
		zap.Float64("base_bpm", score.BaseBPM),
		zap.Duration("native_length", score.Duration()))

	player := tempo.NewPlayer(out, a.log)
	err = player.Play(ctx, score, func() float64 {
		return mapper.Stretch(score.BaseBPM, smoother.Level())
	})

	cancel()
	wg.Wait()
	return err
}
