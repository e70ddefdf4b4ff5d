// Package config loads the pianogames TOML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths locates data tables, models and the database directory.
type Paths struct {
	DataDir         string `toml:"data_dir" json:"data_dir"`
	ChordsCSV       string `toml:"chords_csv" json:"chords_csv"`
	ProgressionsCSV string `toml:"progressions_csv" json:"progressions_csv"`
	ExpressionCSV   string `toml:"expression_csv" json:"expression_csv"`
	MusicRoot       string `toml:"music_root" json:"music_root"`
	MaestroCSV      string `toml:"maestro_csv" json:"maestro_csv"`
	WebDir          string `toml:"web_dir" json:"web_dir"`
	Cascade         string `toml:"cascade" json:"cascade"`
	EmotionModel    string `toml:"emotion_model" json:"emotion_model"`
	HandsScript     string `toml:"hands_script" json:"hands_script"`
}

// MIDI selects the output port.
type MIDI struct {
	// PreferredOutputs are matched as substrings of the OS port names, in order.
	PreferredOutputs []string `toml:"preferred_outputs" json:"preferred_outputs"`
}

// Logging controls log output.
type Logging struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// Server configures the web front end.
type Server struct {
	Bind           string   `toml:"bind" json:"bind"`
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
}

// Conductor configures the motion-to-tempo game.
type Conductor struct {
	Sensitivity  float64 `toml:"sensitivity" json:"sensitivity"`
	Camera       int     `toml:"camera" json:"camera"`
	Smoothing    float64 `toml:"smoothing" json:"smoothing"`
	DefaultBPM   float64 `toml:"default_bpm" json:"default_bpm"`
	MinBPM       float64 `toml:"min_bpm" json:"min_bpm"`
	MaxBPM       float64 `toml:"max_bpm" json:"max_bpm"`
	LevelDivisor float64 `toml:"level_divisor" json:"level_divisor"`
	MaxScale     float64 `toml:"max_scale" json:"max_scale"`
}

// AirPiano configures the hand-gesture chord game.
type AirPiano struct {
	BPM           float64 `toml:"bpm" json:"bpm"`
	LeftChannel   int     `toml:"left_channel" json:"left_channel"`
	RightChannel  int     `toml:"right_channel" json:"right_channel"`
	VelMin        int     `toml:"vel_min" json:"vel_min"`
	VelMax        int     `toml:"vel_max" json:"vel_max"`
	LeftLow       int     `toml:"left_low" json:"left_low"`
	LeftHigh      int     `toml:"left_high" json:"left_high"`
	RightLow      int     `toml:"right_low" json:"right_low"`
	RightHigh     int     `toml:"right_high" json:"right_high"`
	SmoothAlpha   float64 `toml:"smooth_alpha" json:"smooth_alpha"`
	PressAngle    float64 `toml:"press_angle" json:"press_angle"`
	ReleaseAngle  float64 `toml:"release_angle" json:"release_angle"`
	UseThumb      bool    `toml:"use_thumb" json:"use_thumb"`
	SimulWindowMS int     `toml:"simul_window_ms" json:"simul_window_ms"`
	BassAnchor    string  `toml:"bass_anchor" json:"bass_anchor"`
	MaxParticles  int     `toml:"max_particles" json:"max_particles"`
	Mirror        bool    `toml:"mirror" json:"mirror"`
	Cameras       []int   `toml:"cameras" json:"cameras"`
	FrameQueue    int     `toml:"frame_queue" json:"frame_queue"`
	Seed          int64   `toml:"seed" json:"seed"`
	Window        bool    `toml:"window" json:"window"`
}

// Singing configures the voice-to-MIDI game.
type Singing struct {
	SampleRate            int     `toml:"sample_rate" json:"sample_rate"`
	BlockSize             int     `toml:"block_size" json:"block_size"`
	MinFreq               float64 `toml:"min_freq" json:"min_freq"`
	MaxFreq               float64 `toml:"max_freq" json:"max_freq"`
	RMSThreshold          float64 `toml:"rms_threshold" json:"rms_threshold"`
	OctaveShift           int     `toml:"octave_shift" json:"octave_shift"`
	OctaveDoubling        int     `toml:"octave_doubling" json:"octave_doubling"`
	AccOctaveShift        int     `toml:"acc_octave_shift" json:"acc_octave_shift"`
	VelocityScale         float64 `toml:"velocity_scale" json:"velocity_scale"`
	VelocityOffset        float64 `toml:"velocity_offset" json:"velocity_offset"`
	Window                int     `toml:"window" json:"window"`
	Debounce              int     `toml:"debounce" json:"debounce"`
	Scale                 string  `toml:"scale" json:"scale"`
	ScaleRoot             int     `toml:"scale_root" json:"scale_root"`
	ScaleSteps            []int   `toml:"scale_steps" json:"scale_steps"`
	Accompaniment         bool    `toml:"accompaniment" json:"accompaniment"`
	AccompanimentVelocity int     `toml:"accompaniment_velocity" json:"accompaniment_velocity"`
	AccompanimentHoldMS   int     `toml:"accompaniment_hold_ms" json:"accompaniment_hold_ms"`
	AccompanimentChannel  int     `toml:"accompaniment_channel" json:"accompaniment_channel"`
	Channel               int     `toml:"channel" json:"channel"`
}

// Mimipiano configures the expression-driven playback game.
type Mimipiano struct {
	Key     string  `toml:"key" json:"key"`
	Camera  int     `toml:"camera" json:"camera"`
	Manual  bool    `toml:"manual" json:"manual"`
	Happy   float64 `toml:"happy" json:"happy"`
	Special float64 `toml:"special" json:"special"`
	Seed    int64   `toml:"seed" json:"seed"`
}

// Config encapsulates all configuration values.
//
// Sections:
//   - Paths: tables, models and data directory
//   - MIDI: output port preferences
//   - Logging: level and format
//   - Server: web front end bind address and CORS
//   - Conductor, AirPiano, Singing, Mimipiano: per game tunables
type Config struct {
	Paths     Paths     `toml:"paths" json:"paths"`
	MIDI      MIDI      `toml:"midi" json:"midi"`
	Logging   Logging   `toml:"logging" json:"logging"`
	Server    Server    `toml:"server" json:"server"`
	Conductor Conductor `toml:"conductor" json:"conductor"`
	AirPiano  AirPiano  `toml:"airpiano" json:"airpiano"`
	Singing   Singing   `toml:"singing" json:"singing"`
	Mimipiano Mimipiano `toml:"mimipiano" json:"mimipiano"`
}

// DefaultConfigPath returns the absolute path of the default configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pianogames/config.toml")
}

// Load locates, parses and validates a configuration file. A missing file
// yields the defaults. The returned string is the resolved path and the bool
// reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pianogames.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory %q: %w", c.Paths.DataDir, err)
	}
	return nil
}

// DatabasePath returns the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "pianogames.db")
}

// LockPath returns the lock file that serializes games on this machine.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "game.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
