// Package chord loads chord and progression tables and resolves a chord name
// into the pitch classes a hand is allowed to play.
package chord

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/logging"
)

// Tag values found in chord table cells.
const (
	TagRoot    = "1"
	TagTension = "T"
	TagLead    = "L"
	TagAvoid   = "A"
	TagBlank   = ""
)

// tableColumns is the chord name plus one cell per pitch class.
const tableColumns = 13

var (
	// polyTags are the tags a hand may play when several fingers press at once.
	polyTags = map[string]bool{
		"1": true, "2": true, "3": true, "4": true, "5": true, "6": true, "7": true,
		TagTension: true, TagLead: true,
	}
	// monoTags apply to a single newly pressed finger.
	monoTags = polyTags
	// forbiddenTags are never playable.
	forbiddenTags = map[string]bool{TagAvoid: true, TagBlank: true}
	// legacyTension are old tag spellings that now mean T.
	legacyTension = map[string]bool{"2": true, "4": true, "6": true}
)

// ErrTooFewColumns is returned when a chord table has fewer than 13 columns.
var ErrTooFewColumns = errors.New("chord table needs 13 columns (name + 12 pitch classes)")

// Row is one chord definition: a name and one tag per pitch class, C..B.
type Row struct {
	Name string
	Tags [12]string
}

// Table holds chord rows by name. The first row wins when a name repeats.
type Table struct {
	rows   map[string]Row
	folded map[string]string
	order  []string
	log    *zap.Logger

	mu     sync.Mutex
	warned map[string]bool
}

// NewTable builds a table from rows, normalizing names and tags.
func NewTable(rows []Row, logger *zap.Logger) *Table {
	t := &Table{
		rows:   make(map[string]Row, len(rows)),
		folded: make(map[string]string, len(rows)),
		log:    logging.OrNop(logger),
		warned: make(map[string]bool),
	}
	for _, r := range rows {
		name := normalizeName(r.Name)
		if name == "" || strings.EqualFold(name, "nan") {
			continue
		}
		if _, dup := t.rows[name]; dup {
			continue
		}
		for i := range r.Tags {
			r.Tags[i] = NormalizeTag(r.Tags[i])
		}
		r.Name = name
		t.rows[name] = r
		t.order = append(t.order, name)
		if _, ok := t.folded[strings.ToLower(name)]; !ok {
			t.folded[strings.ToLower(name)] = name
		}
	}
	return t
}

// LoadTable reads a headerless chord CSV file.
func LoadTable(path string, logger *zap.Logger) (*Table, error) {
	text, enc, err := ReadText(path)
	if err != nil {
		return nil, err
	}
	t, err := ParseTable(bytes.NewReader(text), logger)
	if err != nil {
		return nil, fmt.Errorf("load chord table %s: %w", path, err)
	}
	t.log.Info("chord table loaded",
		zap.String("path", path),
		zap.String("encoding", enc),
		zap.Int("chords", t.Len()),
	)
	return t, nil
}

// ParseTable reads headerless chord rows: name followed by 12 tags.
// Short rows are padded with blank tags; extra columns are ignored.
func ParseTable(r io.Reader, logger *zap.Logger) (*Table, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	widest := 0
	for _, rec := range records {
		widest = max(widest, len(rec))
	}
	if len(records) > 0 && widest < tableColumns {
		return nil, ErrTooFewColumns
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		var row Row
		row.Name = rec[0]
		for i := 0; i < 12 && i+1 < len(rec); i++ {
			row.Tags[i] = rec[i+1]
		}
		rows = append(rows, row)
	}
	return NewTable(rows, logger), nil
}

// NormalizeTag uppercases and trims a cell and maps legacy tension tags to T.
// Numeric cells written as "1.0" are read as "1".
func NormalizeTag(cell string) string {
	s := strings.ToUpper(strings.TrimSpace(cell))
	if s == "NAN" {
		return TagBlank
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		s = strconv.Itoa(int(f))
	}
	if legacyTension[s] {
		return TagTension
	}
	return s
}

// Len returns the number of distinct chords.
func (t *Table) Len() int {
	return len(t.order)
}

// Names returns chord names in file order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Row looks up a chord, ignoring anything after "/" and surrounding or inner
// spaces. An exact match wins over a case-insensitive one.
func (t *Table) Row(name string) (Row, bool) {
	base, _ := splitSlash(name)
	base = normalizeName(base)
	if r, ok := t.rows[base]; ok {
		return r, true
	}
	if canonical, ok := t.folded[strings.ToLower(base)]; ok {
		return t.rows[canonical], true
	}
	return Row{}, false
}

// AllowedPCs returns the playable pitch classes of a chord in ascending order.
// Unknown chords yield an empty result and are logged once.
func (t *Table) AllowedPCs(name string, mono bool, exclude ...int) []int {
	row, ok := t.Row(name)
	if !ok {
		t.warnUnknown(name)
		return nil
	}

	tags := polyTags
	if mono {
		tags = monoTags
	}

	var pcs []int
	for pc, tag := range row.Tags {
		if forbiddenTags[tag] || !tags[tag] {
			continue
		}
		if excluded(pc, exclude) {
			continue
		}
		pcs = append(pcs, pc)
	}
	return pcs
}

// BassPC returns the bass pitch class of a chord: the note after "/" when the
// name is a slash chord, otherwise the pitch class tagged as the root.
func (t *Table) BassPC(name string) (int, bool) {
	base, bass := splitSlash(name)
	if bass != "" {
		return PitchClassOf(bass)
	}
	row, ok := t.Row(base)
	if !ok {
		t.warnUnknown(name)
		return 0, false
	}
	for pc, tag := range row.Tags {
		if tag == TagRoot {
			return pc, true
		}
	}
	return 0, false
}

func (t *Table) warnUnknown(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.warned[name] {
		return
	}
	t.warned[name] = true
	err := faults.Row(fmt.Errorf("chord %q not in table", name), "unknown chord")
	t.log.Warn("chord skipped", zap.String("chord", name), zap.Error(err))
}

func excluded(pc int, exclude []int) bool {
	for _, e := range exclude {
		if e == pc {
			return true
		}
	}
	return false
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), "")
}

func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
