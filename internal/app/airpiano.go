package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/chord"
	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/detector"
	"github.com/ayusman/pianogames/internal/midiout"
	"github.com/ayusman/pianogames/internal/session"
	"github.com/ayusman/pianogames/internal/tray"
)

// AirPianoOptions are the per-run switches of the air piano.
type AirPianoOptions struct {
	// Tray shows Pause, Change mood and Quit in the system tray.
	Tray bool
}

// AirPiano runs the hand-gesture chord game until ctx ends, the player quits
// from the window or tray, or frame processing fails.
func (a *App) AirPiano(ctx context.Context, opts AirPianoOptions) error {
	cfg := a.Settings(config.GameAirPiano)
	return a.play(ctx, config.GameAirPiano, "", cfg, func(ctx context.Context, out *midiout.Ledger) error {
		return a.airPiano(ctx, cfg, opts, out)
	})
}

func (a *App) airPiano(ctx context.Context, cfg config.Config, opts AirPianoOptions, out *midiout.Ledger) error {
	chords, err := chord.LoadTable(cfg.Paths.ChordsCSV, a.log)
	if err != nil {
		return err
	}
	progs, err := chord.LoadProgressions(cfg.Paths.ProgressionsCSV, a.log)
	if err != nil {
		return err
	}

	cam, id, err := a.devices.Camera(cfg.AirPiano.Cameras)
	if err != nil {
		return err
	}
	defer cam.Close()

	det, err := a.devices.Hands(detector.ServiceConfig(cfg.Paths.HandsScript))
	if err != nil {
		return err
	}
	defer det.Close()

	sess, err := session.New(cfg.AirPiano, chords, progs, out, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			a.log.Warn("closing air piano", zap.Error(cerr))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var t *tray.Tray
	if opts.Tray {
		t = tray.New()
		t.OnPause(sess.TogglePause)
		t.OnMood(sess.RequestMood)
		t.OnQuit(cancel)
		go t.Run()
		defer t.Quit()
	}

	states := make(chan session.State, 1)
	sess.OnState(func(st session.State) {
		if t != nil {
			t.SetChord(st.Chord)
		}
		// Keep only the newest state for the hub.
		select {
		case states <- st:
		default:
			select {
			case <-states:
			default:
			}
			select {
			case states <- st:
			default:
			}
		}
	})

	var window Window
	if cfg.AirPiano.Window && a.devices.Window != nil {
		window = a.devices.Window("Air Piano")
		defer window.Close()
	}

	var wg sync.WaitGroup
	runErr := make(chan error, 1)
	wg.Add(2)
	go func() {
		defer wg.Done()
		runErr <- sess.Run(ctx)
		cancel()
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case st := <-states:
				a.publish(config.GameAirPiano, st)
			}
		}
	}()

	a.log.Info("air piano playing", zap.Int("camera", id), zap.Bool("window", window != nil), zap.Bool("tray", t != nil))

	pipe := &airPianoPipeline{
		sess:   sess,
		det:    det,
		mirror: cfg.AirPiano.Mirror,
		window: window,
		cancel: cancel,
		log:    a.log,
	}
	loopErr := frameLoop(ctx, cam, FrameFPS, a.log, pipe.handle)
	stopped := ctx.Err() != nil
	cancel()
	wg.Wait()

	if err := <-runErr; err != nil {
		return err
	}
	if stopped {
		return nil
	}
	return loopErr
}
