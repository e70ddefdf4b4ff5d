package tempo

import (
	"math"

	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/util"
)

// Mapper turns a motion level into a playback tempo. With no motion the
// tempo is half the base tempo; motion raises it.
type Mapper struct {
	Sensitivity  float64
	LevelDivisor float64
	MaxScale     float64
	MinBPM       float64
	MaxBPM       float64
}

// NewMapper builds a Mapper from the conductor settings. A negative
// sensitivity is treated as 0.
func NewMapper(c config.Conductor) Mapper {
	return Mapper{
		Sensitivity:  math.Max(0, c.Sensitivity),
		LevelDivisor: c.LevelDivisor,
		MaxScale:     c.MaxScale,
		MinBPM:       c.MinBPM,
		MaxBPM:       c.MaxBPM,
	}
}

// Scale returns min(level/divisor, maxScale); negative levels count as 0.
func (m Mapper) Scale(level float64) float64 {
	if level <= 0 || m.LevelDivisor <= 0 {
		return 0
	}
	return math.Min(level/m.LevelDivisor, m.MaxScale)
}

// Tempo returns the target tempo in BPM, always within [MinBPM, MaxBPM].
func (m Mapper) Tempo(base, level float64) float64 {
	target := base * (0.5 + m.Sensitivity*m.Scale(level))
	return util.Clamp(target, m.MinBPM, m.MaxBPM)
}

// Stretch returns the factor event delays are multiplied by: base/target.
func (m Mapper) Stretch(base, level float64) float64 {
	return base / m.Tempo(base, level)
}
