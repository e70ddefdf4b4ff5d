// Package expression alters the notes of a playing score according to the
// listener's mood. Mood is two scores in 0..100: happiness, which flattens
// scale degrees as it drops, and a special (surprise) score that sharpens the
// fourth as it rises.
package expression

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/chord"
	"github.com/ayusman/pianogames/internal/logging"
)

// Column headers of the expression table.
const (
	ColFlat0    = "Flat 0"
	ColFlat100  = "Flat 100"
	ColSharp0   = "Sharp 0"
	ColSharp100 = "Sharp 100"
)

// ErrNoHeader is returned for an empty expression table.
var ErrNoHeader = errors.New("expression table has no header")

// Ramp is a linear probability ramp. A missing ramp yields no probability.
type Ramp struct {
	Zero, Full float64
	Set        bool
}

// Curve is one mode's row in the expression table.
type Curve struct {
	Name  string
	Flat  Ramp
	Sharp Ramp
}

// Curves holds the expression table in file order.
type Curves []Curve

// LoadCurves reads an expression CSV file.
func LoadCurves(path string, logger *zap.Logger) (Curves, error) {
	logger = logging.OrNop(logger)

	text, enc, err := chord.ReadText(path)
	if err != nil {
		return nil, err
	}
	curves, err := ParseCurves(bytes.NewReader(text), logger)
	if err != nil {
		return nil, fmt.Errorf("load expression table %s: %w", path, err)
	}
	logger.Info("expression table loaded",
		zap.String("path", path),
		zap.String("encoding", enc),
		zap.Int("rows", len(curves)),
	)
	return curves, nil
}

// ParseCurves reads a table whose first column is the mode name and whose
// header names the Flat/Sharp ramp columns. Cells that do not parse as
// numbers leave that ramp unset.
func ParseCurves(r io.Reader, logger *zap.Logger) (Curves, error) {
	logger = logging.OrNop(logger)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}

	var curves Curves
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			logger.Warn("expression row skipped",
				zap.Int("line", line),
				zap.String("reason", "missing mode name"))
			continue
		}
		c := Curve{Name: strings.TrimSpace(rec[0])}
		c.Flat = ramp(rec, cols, ColFlat0, ColFlat100)
		c.Sharp = ramp(rec, cols, ColSharp0, ColSharp100)
		curves = append(curves, c)
	}
	return curves, nil
}

func ramp(rec []string, cols map[string]int, zeroCol, fullCol string) Ramp {
	zero, ok0 := cell(rec, cols, zeroCol)
	full, ok1 := cell(rec, cols, fullCol)
	if !ok0 || !ok1 {
		return Ramp{}
	}
	return Ramp{Zero: zero, Full: full, Set: true}
}

func cell(rec []string, cols map[string]int, name string) (float64, bool) {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Probs returns the alteration probability of every mode for the given
// happiness and special scores. Lydian ramps up with the special score along
// its Sharp columns; every other mode ramps up as happiness falls along its
// Flat columns.
func (c Curves) Probs(happy, special float64) map[string]float64 {
	out := make(map[string]float64, len(c))
	for _, curve := range c {
		if curve.Name == Lydian {
			if curve.Sharp.Set {
				out[curve.Name] = rising(special, curve.Sharp)
			}
			continue
		}
		if curve.Flat.Set {
			out[curve.Name] = falling(happy, curve.Flat)
		}
	}
	return out
}

// falling is 0 at or above r.Zero and 1 at or below r.Full.
func falling(v float64, r Ramp) float64 {
	switch {
	case v >= r.Zero:
		return 0
	case v <= r.Full:
		return 1
	}
	return clamp01((r.Zero - v) / (r.Zero - r.Full))
}

// rising is 0 at or below r.Zero and 1 at or above r.Full.
func rising(v float64, r Ramp) float64 {
	switch {
	case v <= r.Zero:
		return 0
	case v >= r.Full:
		return 1
	}
	return clamp01((v - r.Zero) / (r.Full - r.Zero))
}

func clamp01(p float64) float64 {
	return min(1, max(0, p))
}
