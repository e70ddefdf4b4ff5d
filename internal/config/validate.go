package config

import (
	"errors"
	"fmt"

	"github.com/ayusman/pianogames/internal/logging"
)

var validKeys = map[string]bool{
	"C": true, "Cs": true, "D": true, "Ds": true, "E": true, "F": true,
	"Fs": true, "G": true, "Gs": true, "A": true, "As": true, "B": true,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case logging.FormatAuto, logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("logging.format must be auto, console or json, got %q", c.Logging.Format)
	}
	if err := c.validateConductor(); err != nil {
		return err
	}
	if err := c.validateAirPiano(); err != nil {
		return err
	}
	if err := c.validateSinging(); err != nil {
		return err
	}
	return c.validateMimipiano()
}

func (c *Config) validateConductor() error {
	cd := c.Conductor
	if cd.Sensitivity < 0 {
		return errors.New("conductor.sensitivity must be >= 0")
	}
	if cd.Smoothing < 0 || cd.Smoothing > 1 {
		return errors.New("conductor.smoothing must be between 0 and 1")
	}
	if cd.DefaultBPM <= 0 {
		return errors.New("conductor.default_bpm must be > 0")
	}
	if cd.MinBPM <= 0 || cd.MaxBPM < cd.MinBPM {
		return errors.New("conductor.min_bpm must be > 0 and <= conductor.max_bpm")
	}
	if cd.LevelDivisor <= 0 {
		return errors.New("conductor.level_divisor must be > 0")
	}
	if cd.MaxScale < 0 {
		return errors.New("conductor.max_scale must be >= 0")
	}
	return nil
}

func (c *Config) validateAirPiano() error {
	ap := c.AirPiano
	if ap.BPM <= 0 {
		return errors.New("airpiano.bpm must be > 0")
	}
	if err := validChannel("airpiano.left_channel", ap.LeftChannel); err != nil {
		return err
	}
	if err := validChannel("airpiano.right_channel", ap.RightChannel); err != nil {
		return err
	}
	if ap.VelMin < 1 || ap.VelMax > 127 || ap.VelMin > ap.VelMax {
		return errors.New("airpiano.vel_min and vel_max must satisfy 1 <= vel_min <= vel_max <= 127")
	}
	if err := validRegister("airpiano.left", ap.LeftLow, ap.LeftHigh); err != nil {
		return err
	}
	if err := validRegister("airpiano.right", ap.RightLow, ap.RightHigh); err != nil {
		return err
	}
	if ap.SmoothAlpha < 0 || ap.SmoothAlpha > 1 {
		return errors.New("airpiano.smooth_alpha must be between 0 and 1")
	}
	if ap.PressAngle >= ap.ReleaseAngle {
		return errors.New("airpiano.press_angle must be < release_angle")
	}
	if ap.SimulWindowMS < 0 {
		return errors.New("airpiano.simul_window_ms must be >= 0")
	}
	if ap.BassAnchor != BassAnchorFirstPress && ap.BassAnchor != BassAnchorChordChange {
		return fmt.Errorf("airpiano.bass_anchor must be %q or %q", BassAnchorFirstPress, BassAnchorChordChange)
	}
	if ap.MaxParticles < 0 {
		return errors.New("airpiano.max_particles must be >= 0")
	}
	return nil
}

func (c *Config) validateSinging() error {
	s := c.Singing
	if s.SampleRate <= 0 || s.BlockSize <= 0 {
		return errors.New("singing.sample_rate and block_size must be > 0")
	}
	if s.MinFreq <= 0 || s.MaxFreq <= s.MinFreq {
		return errors.New("singing.min_freq must be > 0 and < max_freq")
	}
	if s.RMSThreshold < 0 {
		return errors.New("singing.rms_threshold must be >= 0")
	}
	if s.OctaveDoubling < 0 {
		return errors.New("singing.octave_doubling must be >= 0")
	}
	if s.Window < 1 || s.Debounce < 1 {
		return errors.New("singing.window and debounce must be >= 1")
	}
	if s.Scale != ScaleBlues && s.Scale != ScaleChromatic {
		return fmt.Errorf("singing.scale must be %q or %q", ScaleBlues, ScaleChromatic)
	}
	if s.ScaleRoot < 0 || s.ScaleRoot > 127 {
		return errors.New("singing.scale_root must be a MIDI note 0..127")
	}
	if s.AccompanimentVelocity < 0 || s.AccompanimentVelocity > 127 {
		return errors.New("singing.accompaniment_velocity must be 0..127")
	}
	if s.AccompanimentHoldMS <= 0 {
		return errors.New("singing.accompaniment_hold_ms must be > 0")
	}
	if err := validChannel("singing.accompaniment_channel", s.AccompanimentChannel); err != nil {
		return err
	}
	return validChannel("singing.channel", s.Channel)
}

func (c *Config) validateMimipiano() error {
	m := c.Mimipiano
	if m.Key != "" && !validKeys[m.Key] {
		return fmt.Errorf("mimipiano.key %q is not one of C, Cs, D, Ds, E, F, Fs, G, Gs, A, As, B", m.Key)
	}
	if m.Happy < 0 || m.Happy > 100 || m.Special < 0 || m.Special > 100 {
		return errors.New("mimipiano.happy and special must be between 0 and 100")
	}
	return nil
}

func validChannel(name string, ch int) error {
	if ch < 0 || ch > 15 {
		return fmt.Errorf("%s must be 0..15", name)
	}
	return nil
}

func validRegister(name string, low, high int) error {
	if low < 0 || high > 127 || low > high {
		return fmt.Errorf("%s_low and %s_high must satisfy 0 <= low <= high <= 127", name, name)
	}
	return nil
}
