package app

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/catalog"
	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/expression"
	"github.com/ayusman/pianogames/internal/midiout"
	"github.com/ayusman/pianogames/internal/tempo"
)

// MimiOptions are the per-run switches of the mimipiano.
type MimiOptions struct {
	// File is played instead of a random file of the configured key.
	File string
	// Manual uses the configured scores instead of the camera.
	Manual bool
}

// MoodState is published whenever the face reading changes the mood.
type MoodState struct {
	File    string  `json:"file"`
	Happy   float64 `json:"happy"`
	Special float64 `json:"special"`
}

// Mimi plays a piece whose notes bend with the player's expression.
func (a *App) Mimi(ctx context.Context, opts MimiOptions) error {
	cfg := a.Settings(config.GameMimipiano)
	opts.Manual = opts.Manual || cfg.Mimipiano.Manual

	root, ok := expression.KeyPC(cfg.Mimipiano.Key)
	if !ok {
		return fmt.Errorf("unknown key %q", cfg.Mimipiano.Key)
	}
	seed := cfg.Mimipiano.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	file := opts.File
	if file == "" {
		lib := catalog.Library{Root: cfg.Paths.MusicRoot}
		var err error
		if file, err = lib.Random(rng, cfg.Mimipiano.Key); err != nil {
			return err
		}
	}

	return a.play(ctx, config.GameMimipiano, filepath.Base(file), cfg, func(ctx context.Context, out *midiout.Ledger) error {
		return a.mimi(ctx, cfg, opts.Manual, file, root, rng, out)
	})
}

func (a *App) mimi(ctx context.Context, cfg config.Config, manual bool, file string, root int, rng *rand.Rand, out *midiout.Ledger) error {
	score, err := tempo.ReadScore(file)
	if err != nil {
		return err
	}
	if len(score.Events) == 0 {
		return fmt.Errorf("%s: %w", file, tempo.ErrEmptyScore)
	}
	curves, err := expression.LoadCurves(cfg.Paths.ExpressionCSV, a.log)
	if err != nil {
		return err
	}

	mood := expression.NewMood(cfg.Mimipiano.Happy, cfg.Mimipiano.Special)
	name := filepath.Base(file)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if !manual {
		cam, id, err := a.devices.Camera([]int{cfg.Mimipiano.Camera})
		if err != nil {
			return err
		}
		defer cam.Close()

		face, err := a.devices.Face(cfg.Paths.Cascade, cfg.Paths.EmotionModel)
		if err != nil {
			return err
		}
		defer face.Close()

		watcher := &faceWatcher{
			face: face,
			mood: mood,
			log:  a.log,
			onMood: func(happy, special float64) {
				a.publish(config.GameMimipiano, MoodState{File: name, Happy: happy, Special: special})
			},
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := frameLoop(ctx, cam, FaceFPS, a.log, watcher.handle); err != nil && ctx.Err() == nil {
				a.log.Warn("camera stopped; mood stays where it was", zap.Error(err))
			}
		}()
		a.log.Info("reading expressions", zap.Int("camera", id))
	}

	mod := expression.NewModulator(out, curves, root, mood, rng, a.log)
	happy, special := mood.Get()
	a.publish(config.GameMimipiano, MoodState{File: name, Happy: happy, Special: special})
	a.log.Info("playing",
		zap.String("file", file),
		zap.String("key", cfg.Mimipiano.Key),
		zap.Bool("manual", manual),
		zap.Float64("happy", happy),
		zap.Float64("special", special))

	err = tempo.NewPlayer(mod, a.log).Play(ctx, score, nil)
	cancel()
	wg.Wait()

	if serr := mod.Stop(); serr != nil {
		a.log.Warn("releasing altered notes", zap.Error(serr))
	}
	a.log.Info("piece finished", zap.Int("altered", mod.Altered()))
	return err
}
