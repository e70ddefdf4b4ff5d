// Package app runs the games: it opens the devices a game needs, applies the
// saved settings, records the play session and makes sure the MIDI output is
// silenced and closed however the game ends.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/logging"
	"github.com/ayusman/pianogames/internal/midiout"
	"github.com/ayusman/pianogames/internal/store"
)

// ErrBusy is returned when another game holds the lock.
var ErrBusy = errors.New("another game is already running")

// Publisher receives live game state. server.Hub implements it.
type Publisher interface {
	Publish(kind string, v any) error
}

// Config holds configuration options for the application.
type Config struct {
	Settings *config.Config
	Store    *store.Store // optional
	Hub      Publisher    // optional
	Devices  Devices
	// LockPath is the file locked while a game runs. Empty disables locking.
	LockPath string
	Logger   *zap.Logger
}

// App starts games one at a time.
type App struct {
	config  Config
	devices Devices
	log     *zap.Logger

	mu       sync.RWMutex
	settings config.Config
}

// New creates an App. Devices left nil are filled in from HardwareDevices.
func New(cfg Config) *App {
	logger := logging.OrNop(cfg.Logger)
	settings := config.Default()
	if cfg.Settings != nil {
		settings = *cfg.Settings
	}
	return &App{
		config:   cfg,
		devices:  cfg.Devices.orHardware(logger),
		log:      logger,
		settings: settings,
	}
}

// Settings returns the configuration with the saved settings of game laid
// over it. A saved value that no longer validates is ignored.
func (a *App) Settings(game string) config.Config {
	a.mu.RLock()
	cfg := a.settings
	a.mu.RUnlock()

	if a.config.Store == nil || cfg.Section(game) == nil {
		return cfg
	}
	raw, err := a.config.Store.Settings().Get(game)
	if errors.Is(err, store.ErrNotFound) {
		return cfg
	}
	if err != nil {
		a.log.Warn("could not read saved settings", zap.String("game", game), zap.Error(err))
		return cfg
	}
	if err := cfg.ApplySettings(game, []byte(raw)); err != nil {
		a.log.Warn("ignoring saved settings", zap.String("game", game), zap.Error(err))
	}
	return cfg
}

// SaveSettings makes cfg the configuration for later games and stores the
// section of game.
func (a *App) SaveSettings(game string, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	a.settings = cfg
	a.mu.Unlock()

	section := cfg.Section(game)
	if a.config.Store == nil || section == nil {
		return nil
	}
	raw, err := json.Marshal(section)
	if err != nil {
		return fmt.Errorf("encode %s settings: %w", game, err)
	}
	if err := a.config.Store.Settings().Set(game, string(raw)); err != nil {
		return fmt.Errorf("save %s settings: %w", game, err)
	}
	return nil
}

// gameFunc plays one game on an open output. It returns when the game is
// over or ctx ends.
type gameFunc func(ctx context.Context, out *midiout.Ledger) error

// play wraps a game with the lock, the output and the session record. The
// output is released and closed on every return path, panics included.
func (a *App) play(ctx context.Context, game, detail string, cfg config.Config, fn gameFunc) (err error) {
	unlock, err := a.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	port, err := a.devices.Output(cfg.MIDI.PreferredOutputs)
	if err != nil {
		return err
	}
	out := midiout.NewLedger(port)

	record := a.startRecord(game, detail)
	defer func() {
		a.finishRecord(record, out.Sent())
	}()
	defer func() {
		if cerr := out.Close(); cerr != nil {
			a.log.Warn("closing MIDI output", zap.Error(cerr))
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("game panicked", zap.String("game", game), zap.Any("panic", r))
			err = fmt.Errorf("%s: %v", game, r)
		}
	}()

	a.log.Info("game started", zap.String("game", game), zap.String("detail", detail))
	err = fn(ctx, out)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	a.log.Info("game finished", zap.String("game", game), zap.Int("messages", out.Sent()), zap.Error(err))
	return err
}

func (a *App) acquire() (func(), error) {
	if a.config.LockPath == "" {
		return func() {}, nil
	}
	lock := flock.New(a.config.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", a.config.LockPath, err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			a.log.Warn("unlock", zap.String("path", a.config.LockPath), zap.Error(err))
		}
	}, nil
}

func (a *App) startRecord(game, detail string) *store.PlaySession {
	if a.config.Store == nil {
		return nil
	}
	ps, err := a.config.Store.Sessions().Start(game, detail)
	if err != nil {
		a.log.Warn("could not record play session", zap.Error(err))
		return nil
	}
	return ps
}

func (a *App) finishRecord(ps *store.PlaySession, sent int) {
	if ps == nil {
		return
	}
	if err := a.config.Store.Sessions().Finish(ps.ID, sent); err != nil {
		a.log.Warn("could not finish play session", zap.String("id", ps.ID), zap.Error(err))
	}
}

// publish forwards state to the hub. Failures only matter to the viewers.
func (a *App) publish(kind string, v any) {
	if a.config.Hub == nil {
		return
	}
	if err := a.config.Hub.Publish(kind, v); err != nil {
		a.log.Debug("publish failed", zap.String("kind", kind), zap.Error(err))
	}
}
