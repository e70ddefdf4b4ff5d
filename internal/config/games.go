package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Game names, also used as settings keys.
const (
	GameConductor = "conductor"
	GameAirPiano  = "airpiano"
	GameSinging   = "singing"
	GameMimipiano = "mimipiano"
	GameMIDITest  = "midi-test"
)

// Game describes one entry of the launcher.
type Game struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Games lists every game in launcher order.
var Games = []Game{
	{GameConductor, "Conductor", "Wave at the camera; the faster you move, the faster the piece plays."},
	{GameAirPiano, "Air Piano", "Curl your fingers in the air to play the chords of a progression."},
	{GameSinging, "Singing", "Sing into the microphone and hear your voice on the piano with a blues band."},
	{GameMimipiano, "Mimipiano", "Your facial expression bends the mode of a classical piece."},
	{GameMIDITest, "MIDI Test", "Play a short scale to check the MIDI output."},
}

// KnownGame reports whether name is one of Games.
func KnownGame(name string) bool {
	for _, g := range Games {
		if g.Name == name {
			return true
		}
	}
	return false
}

// Section returns a pointer to the tunables of a game, or nil when the game
// has none.
func (c *Config) Section(game string) any {
	switch game {
	case GameConductor:
		return &c.Conductor
	case GameAirPiano:
		return &c.AirPiano
	case GameSinging:
		return &c.Singing
	case GameMimipiano:
		return &c.Mimipiano
	}
	return nil
}

// ApplySettings overlays saved JSON settings onto the section of game and
// validates the result. On error c is left unchanged.
func (c *Config) ApplySettings(game string, raw []byte) error {
	next := *c
	next.AirPiano.Cameras = slices.Clone(c.AirPiano.Cameras)
	next.Singing.ScaleSteps = slices.Clone(c.Singing.ScaleSteps)
	section := next.Section(game)
	if section == nil {
		return fmt.Errorf("game %q has no settings", game)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(section); err != nil {
		return fmt.Errorf("decode %s settings: %w", game, err)
	}
	next.normalizeGames()
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ValidateSettings reports whether raw is an acceptable settings overlay for
// game on top of the defaults.
func ValidateSettings(game string, raw []byte) error {
	c := Default()
	if err := c.normalize(); err != nil {
		return err
	}
	return c.ApplySettings(game, raw)
}
