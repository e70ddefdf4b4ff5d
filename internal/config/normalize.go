package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMIDI()
	c.normalizeLogging()
	c.normalizeServer()
	c.normalizeGames()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.data_dir", &c.Paths.DataDir},
		{"paths.chords_csv", &c.Paths.ChordsCSV},
		{"paths.progressions_csv", &c.Paths.ProgressionsCSV},
		{"paths.expression_csv", &c.Paths.ExpressionCSV},
		{"paths.music_root", &c.Paths.MusicRoot},
		{"paths.maestro_csv", &c.Paths.MaestroCSV},
		{"paths.web_dir", &c.Paths.WebDir},
		{"paths.cascade", &c.Paths.Cascade},
		{"paths.emotion_model", &c.Paths.EmotionModel},
		{"paths.hands_script", &c.Paths.HandsScript},
	}
	for _, f := range fields {
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizeMIDI() {
	prefs := c.MIDI.PreferredOutputs[:0]
	for _, name := range c.MIDI.PreferredOutputs {
		if name = strings.TrimSpace(name); name != "" {
			prefs = append(prefs, name)
		}
	}
	c.MIDI.PreferredOutputs = prefs
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "auto"
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
}

func (c *Config) normalizeGames() {
	c.AirPiano.BassAnchor = strings.ToLower(strings.TrimSpace(c.AirPiano.BassAnchor))
	if c.AirPiano.BassAnchor == "" {
		c.AirPiano.BassAnchor = BassAnchorFirstPress
	}
	if len(c.AirPiano.Cameras) == 0 {
		c.AirPiano.Cameras = []int{0, 1, 2}
	}
	if c.AirPiano.FrameQueue <= 0 {
		c.AirPiano.FrameQueue = 4
	}
	c.Singing.Scale = strings.ToLower(strings.TrimSpace(c.Singing.Scale))
	if c.Singing.Scale == "" {
		c.Singing.Scale = ScaleBlues
	}
	if len(c.Singing.ScaleSteps) == 0 {
		c.Singing.ScaleSteps = []int{0, 3, 5, 6, 7, 10}
	}
	c.Mimipiano.Key = strings.TrimSpace(c.Mimipiano.Key)
}
