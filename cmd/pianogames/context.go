package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/app"
	"github.com/ayusman/pianogames/internal/catalog"
	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/logging"
	"github.com/ayusman/pianogames/internal/menu"
	"github.com/ayusman/pianogames/internal/server"
	"github.com/ayusman/pianogames/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	liveFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger

	store *store.Store
	hub   *server.Hub

	// devices replaces the hardware in tests.
	devices app.Devices
}

func newCommandContext(configFlag, logLevelFlag *string, liveFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		liveFlag:     liveFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *zap.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openStore() (*store.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c.store = st
	return st, nil
}

// newApp builds the game runner. With --live the web front end is served
// until ctx ends and the games publish their state to it.
func (c *commandContext) newApp(ctx context.Context) (*app.App, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}

	devices := c.devices
	if devices.Window == nil && cfg.AirPiano.Window {
		devices.Window = app.GUIWindow
	}

	appCfg := app.Config{
		Settings: cfg,
		Store:    st,
		Devices:  devices,
		LockPath: cfg.LockPath(),
		Logger:   c.log(),
	}
	if c.liveFlag != nil && *c.liveFlag {
		c.hub = server.NewHub(c.log())
		appCfg.Hub = c.hub
		srv := c.newServer(cfg, st, nil)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Server.Bind); err != nil && !errors.Is(err, http.ErrServerClosed) {
				c.log().Error("web front end stopped", zap.Error(err))
			}
		}()
		c.log().Info("serving live state", zap.String("addr", "http://"+cfg.Server.Bind))
	}
	return app.New(appCfg), nil
}

func (c *commandContext) newServer(cfg *config.Config, st *store.Store, camera server.FrameSource) *server.Server {
	return server.New(server.Config{
		StaticDir:      cfg.Paths.WebDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Store:          st,
		Library:        &catalog.Library{Root: cfg.Paths.MusicRoot},
		Camera:         camera,
		Hub:            c.hub,
		Logger:         c.log(),
	})
}

func (c *commandContext) console(cmd *cobra.Command) app.Console {
	return app.Console{In: menu.NewLineReader(cmd.InOrStdin()), Out: cmd.OutOrStdout()}
}

func (c *commandContext) close() {
	if c.hub != nil {
		c.hub.Close()
		c.hub = nil
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.log().Warn("closing store", zap.Error(err))
		}
		c.store = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
