// Package testdata embeds the small tables shared by package tests and the
// end-to-end test, and writes them out as a complete data directory.
package testdata

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"gocv.io/x/gocv"
)

//go:embed *.csv
var tablesFS embed.FS

// Table file names.
const (
	ChordsCSV       = "chords.csv"
	ProgressionsCSV = "progressions.csv"
	ExpressionCSV   = "expression.csv"
	MaestroCSV      = "maestro.csv"
)

// Table returns the contents of an embedded table.
func Table(name string) []byte {
	data, err := tablesFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("testdata: missing table %s", name))
	}
	return data
}

// WriteTables copies every table into dir.
func WriteTables(dir string) error {
	for _, name := range []string{ChordsCSV, ProgressionsCSV, ExpressionCSV, MaestroCSV} {
		if err := os.WriteFile(filepath.Join(dir, name), Table(name), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// WriteSMF writes a one-bar C major arpeggio at bpm (no tempo event when bpm
// is 0) with a sustain pedal press and release.
func WriteSMF(path string, bpm float64) error {
	s := smf.New()

	var conductor smf.Track
	if bpm > 0 {
		conductor.Add(0, smf.MetaTempo(bpm))
	}
	conductor.Close(0)

	var melody smf.Track
	melody.Add(0, midi.ControlChange(0, 64, 127))
	for _, n := range []uint8{60, 64, 67, 72} {
		melody.Add(0, midi.NoteOn(0, n, 96))
		melody.Add(480, midi.NoteOff(0, n))
	}
	melody.Add(0, midi.ControlChange(0, 64, 0))
	melody.Close(0)

	for _, tr := range []smf.Track{conductor, melody} {
		if err := s.Add(tr); err != nil {
			return fmt.Errorf("add track: %w", err)
		}
	}
	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("write smf: %w", err)
	}
	return nil
}

// WriteLibrary creates root/<key>/<name> MIDI files for the expression game.
func WriteLibrary(root, key string, names ...string) error {
	dir := filepath.Join(root, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range names {
		if err := WriteSMF(filepath.Join(dir, name), 240); err != nil {
			return err
		}
	}
	return nil
}

// SolidFrame returns a BGR frame filled with one grey level.
func SolidFrame(level float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(level, level, level, 0), 120, 160, gocv.MatTypeCV8UC3)
}
