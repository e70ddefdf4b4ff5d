package chord

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/logging"
)

// MaxSteps is the longest progression a row may define.
const MaxSteps = 32

// Progression is a named cycle of chord names, one per beat.
type Progression struct {
	Name  string
	Steps []string
}

// At returns the chord at step, wrapping around the cycle. An empty
// progression yields "".
func (p Progression) At(step int) string {
	if len(p.Steps) == 0 {
		return ""
	}
	step %= len(p.Steps)
	if step < 0 {
		step += len(p.Steps)
	}
	return p.Steps[step]
}

// Len returns the number of steps.
func (p Progression) Len() int {
	return len(p.Steps)
}

// LoadProgressions reads a headerless progression CSV file.
func LoadProgressions(path string, logger *zap.Logger) ([]Progression, error) {
	logger = logging.OrNop(logger)

	text, enc, err := ReadText(path)
	if err != nil {
		return nil, err
	}
	progs, err := ParseProgressions(bytes.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("load progressions %s: %w", path, err)
	}
	logger.Info("progressions loaded",
		zap.String("path", path),
		zap.String("encoding", enc),
		zap.Int("rows", len(progs)),
	)
	return progs, nil
}

// ParseProgressions reads rows of name followed by up to 32 chord names.
// Blank cells are skipped and rows without any chord are dropped. A blank
// name becomes "Row<i>".
func ParseProgressions(r io.Reader) ([]Progression, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	var progs []Progression
	for i, rec := range records {
		name := strings.TrimSpace(rec[0])
		if name == "" {
			name = fmt.Sprintf("Row%d", i)
		}

		var steps []string
		for _, cell := range rec[1:min(len(rec), MaxSteps+1)] {
			s := strings.TrimSpace(cell)
			if s == "" || strings.EqualFold(s, "nan") {
				continue
			}
			steps = append(steps, s)
		}
		if len(steps) > 0 {
			progs = append(progs, Progression{Name: name, Steps: steps})
		}
	}
	return progs, nil
}

// Pick returns a uniformly random progression index.
func Pick(rng *rand.Rand, progs []Progression) int {
	if len(progs) == 0 {
		return 0
	}
	return rng.Intn(len(progs))
}
