// Package catalog reads the music the games play: the MAESTRO metadata table
// grouped by composer, and the per-key MIDI library used by the expression
// game.
package catalog

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/chord"
	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/logging"
	"github.com/ayusman/pianogames/internal/store"
)

// MAESTRO columns read by ParseMaestro.
const (
	ColComposer = "canonical_composer"
	ColTitle    = "canonical_title"
	ColFile     = "midi_filename"
	ColDuration = "duration"
	ColYear     = "year"
)

// ErrMissingColumn is returned when the MAESTRO header lacks a needed column.
var ErrMissingColumn = errors.New("maestro table is missing a column")

// LoadMaestro reads a MAESTRO metadata CSV file.
func LoadMaestro(path string, logger *zap.Logger) ([]store.Composer, error) {
	logger = logging.OrNop(logger)

	text, enc, err := chord.ReadText(path)
	if err != nil {
		return nil, err
	}
	composers, err := ParseMaestro(bytes.NewReader(text), logger)
	if err != nil {
		return nil, fmt.Errorf("load maestro %s: %w", path, err)
	}
	logger.Info("maestro table loaded",
		zap.String("path", path),
		zap.String("encoding", enc),
		zap.Int("composers", len(composers)),
	)
	return composers, nil
}

// ParseMaestro groups the table's rows by composer. Composers come out sorted
// by name; pieces keep file order. Rows with an unreadable duration are
// logged and skipped.
func ParseMaestro(r io.Reader, logger *zap.Logger) ([]store.Composer, error) {
	logger = logging.OrNop(logger)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, c := range []string{ColComposer, ColTitle, ColFile, ColDuration, ColYear} {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	byName := make(map[string]*store.Composer)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		get := func(col string) string {
			if i := cols[col]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		duration, err := strconv.ParseFloat(get(ColDuration), 64)
		if err != nil {
			logger.Warn("maestro row skipped", zap.Int("line", line),
				zap.Error(faults.Row(err, "bad duration")))
			continue
		}
		year, _ := strconv.Atoi(get(ColYear))

		name := get(ColComposer)
		c, ok := byName[name]
		if !ok {
			c = &store.Composer{Name: name}
			byName[name] = c
		}
		c.Pieces = append(c.Pieces, store.Piece{
			Title:        get(ColTitle),
			MIDIFilename: get(ColFile),
			Duration:     duration,
			Year:         year,
		})
		c.PieceCount = len(c.Pieces)
	}

	out := make([]store.Composer, 0, len(byName))
	for _, c := range byName {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// WriteJSON writes the catalog as an object keyed by composer name.
func WriteJSON(w io.Writer, composers []store.Composer) error {
	m := make(map[string]store.Composer, len(composers))
	for _, c := range composers {
		m[c.Name] = c
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(m)
}

// TotalPieces counts every piece in the catalog.
func TotalPieces(composers []store.Composer) int {
	n := 0
	for _, c := range composers {
		n += len(c.Pieces)
	}
	return n
}
