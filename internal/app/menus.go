package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/catalog"
	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/expression"
	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/menu"
)

// Console is the terminal the menus talk to.
type Console struct {
	In  *menu.LineReader
	Out io.Writer
}

const randomFile = "random"

// ConductorMenu lets the player pick a file from dir and tune the conductor
// before each run. It returns when the player quits.
func (a *App) ConductorMenu(ctx context.Context, con Console, dir string) error {
	cfg := a.Settings(config.GameConductor)
	file := ""

	items := []menu.Item{
		{
			Key:   "1",
			Label: "MIDI file",
			Value: func() string { return orNone(filepath.Base(file), file == "") },
			Options: func() ([]string, error) {
				return midiFiles(dir)
			},
			Set: func(s string) error { file = filepath.Join(dir, s); return nil },
		},
		menu.Float("2", "Sensitivity", &cfg.Conductor.Sensitivity, menu.AtLeast(0.0)),
		menu.Float("3", "Smoothing (smaller is smoother)", &cfg.Conductor.Smoothing, menu.ClampTo(0.0, 1.0)),
		menu.Int("4", "Camera index", &cfg.Conductor.Camera, menu.AtLeast(0)),
		a.portItem("5", &cfg),
		{Key: "7", Label: "▶ Start", Exit: true},
		{Key: "8", Label: "Reset values", Run: func() error {
			cfg.Conductor = config.DefaultConductor()
			return nil
		}},
		{Key: "0", Label: "Quit", Quit: true},
	}

	return a.menuLoop(ctx, con, "Conductor", config.GameConductor, &cfg, items, func() error {
		if file == "" {
			return faults.Invalid("choose a MIDI file first")
		}
		return a.Conductor(ctx, file)
	})
}

// SingingMenu tunes the voice path before each run.
func (a *App) SingingMenu(ctx context.Context, con Console, wavPath string) error {
	cfg := a.Settings(config.GameSinging)
	s := &cfg.Singing

	items := []menu.Item{
		{Key: "1", Label: "▶ Start singing", Exit: true},
		menu.Bool("2", "Accompaniment", &s.Accompaniment),
		menu.Int("3", "Sample rate (Hz)", &s.SampleRate, menu.Between(8000, 192000)),
		menu.Int("4", "Block size", &s.BlockSize, menu.Between(64, 16384)),
		menu.Float("5", "Min freq (Hz)", &s.MinFreq, menu.AtLeast(1.0)),
		menu.Float("6", "Max freq (Hz)", &s.MaxFreq, menu.AtLeast(1.0)),
		menu.Float("7", "RMS threshold", &s.RMSThreshold, menu.AtLeast(0.0)),
		menu.Int("8", "Vocal octave shift", &s.OctaveShift, menu.Between(-4, 4)),
		menu.Int("9", "Octave doubling (count)", &s.OctaveDoubling, menu.Between(0, 4)),
		menu.Int("10", "Accompaniment octave shift", &s.AccOctaveShift, menu.Between(-4, 4)),
		menu.Float("11", "Velocity scale", &s.VelocityScale, menu.AtLeast(0.0)),
		menu.Float("12", "Velocity offset", &s.VelocityOffset, menu.ClampTo(0.0, 127.0)),
		menu.Int("13", "Window size", &s.Window, menu.Between(1, 50)),
		menu.Int("14", "Debounce count", &s.Debounce, menu.Between(1, 50)),
		menu.OneOf("15", "Scale", &s.Scale, config.ScaleBlues, config.ScaleChromatic),
		menu.Int("16", "Blues root MIDI note", &s.ScaleRoot, menu.Between(0, 127)),
		a.portItem("17", &cfg),
		menu.Int("18", "Accompaniment channel", &s.AccompanimentChannel, menu.Between(0, 15)),
		{Key: "0", Label: "Quit", Quit: true},
	}

	return a.menuLoop(ctx, con, "Singing Piano", config.GameSinging, &cfg, items, func() error {
		return a.Sing(ctx, wavPath)
	})
}

// MimiMenu picks the key, the piece and the mood source before each run.
func (a *App) MimiMenu(ctx context.Context, con Console) error {
	cfg := a.Settings(config.GameMimipiano)
	m := &cfg.Mimipiano
	file := ""

	keyItem := menu.OneOf("2", "Key", &m.Key, expression.Keys...)
	setKey := keyItem.Set
	keyItem.Set = func(s string) error {
		if err := setKey(s); err != nil {
			return err
		}
		file = ""
		return nil
	}

	items := []menu.Item{
		{Key: "1", Label: "▶ Start", Exit: true},
		keyItem,
		{
			Key:   "3",
			Label: "Piece",
			Value: func() string {
				if file == "" {
					return randomFile
				}
				return file
			},
			Options: func() ([]string, error) {
				files, err := catalog.Library{Root: cfg.Paths.MusicRoot}.List(m.Key)
				return append([]string{randomFile}, files...), err
			},
			Set: func(s string) error {
				if s == randomFile {
					s = ""
				}
				file = s
				return nil
			},
		},
		menu.Bool("4", "Manual mood", &m.Manual),
		menu.Float("5", "Happiness (0-100)", &m.Happy, menu.ClampTo(0.0, 100.0)),
		menu.Float("6", "Special (0-100)", &m.Special, menu.ClampTo(0.0, 100.0)),
		menu.Int("7", "Camera index", &m.Camera, menu.AtLeast(0)),
		a.portItem("8", &cfg),
		{Key: "0", Label: "Quit", Quit: true},
	}

	return a.menuLoop(ctx, con, "Mimipiano", config.GameMimipiano, &cfg, items, func() error {
		opts := MimiOptions{Manual: m.Manual}
		if file != "" {
			path, err := catalog.Library{Root: cfg.Paths.MusicRoot}.Resolve(m.Key, file)
			if err != nil {
				return err
			}
			opts.File = path
		}
		return a.Mimi(ctx, opts)
	})
}

// menuLoop shows the menu, saves the settings and starts the game each time
// the player picks Start. A game that fails is reported and the menu shown
// again.
func (a *App) menuLoop(ctx context.Context, con Console, title, game string, cfg *config.Config, items []menu.Item, start func() error) error {
	m := menu.New(title, con.In, con.Out, a.log, items...)
	for {
		_, err := m.Run(ctx)
		if errors.Is(err, menu.ErrQuit) {
			if err := a.SaveSettings(game, *cfg); err != nil {
				a.log.Warn("settings not saved", zap.String("game", game), zap.Error(err))
			}
			return nil
		}
		if err != nil {
			return err
		}
		if err := a.SaveSettings(game, *cfg); err != nil {
			fmt.Fprintln(con.Out, "✗", faults.Issue(err))
			continue
		}
		if err := start(); err != nil {
			fmt.Fprintln(con.Out, "✗", faults.Issue(err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// portItem chooses the MIDI output; the choice becomes the first preferred
// name.
func (a *App) portItem(key string, cfg *config.Config) menu.Item {
	return menu.Item{
		Key:   key,
		Label: "Output port",
		Value: func() string {
			prefs := cfg.MIDI.PreferredOutputs
			return orNone(firstOf(prefs), len(prefs) == 0)
		},
		Options: a.devices.Outputs,
		Set: func(s string) error {
			prefs := slices.DeleteFunc(slices.Clone(cfg.MIDI.PreferredOutputs), func(p string) bool { return p == s })
			cfg.MIDI.PreferredOutputs = append([]string{s}, prefs...)
			return nil
		},
	}
}

func midiFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && catalog.IsMIDI(e.Name()) {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, faults.Invalid(fmt.Sprintf("no .mid files in %s", dir))
	}
	sort.Strings(files)
	return files, nil
}

func firstOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func orNone(s string, none bool) string {
	if none || s == "" {
		return "none"
	}
	return s
}
