// Package notes turns chord pitch classes and a hand position into concrete
// MIDI notes and keeps each hand's sounding notes consistent.
package notes

import (
	"math"
	"math/rand"

	"github.com/ayusman/pianogames/internal/util"
)

// maxOctaves bounds the octave search for a pitch class.
const maxOctaves = 10

// Register is the inclusive MIDI note range a hand plays in.
type Register struct {
	Low  int
	High int
}

// Contains reports whether n is inside the register.
func (r Register) Contains(n int) bool {
	return n >= r.Low && n <= r.High
}

// VelocityRange bounds note velocities.
type VelocityRange struct {
	Min int
	Max int
}

// PCSource resolves a chord name to playable pitch classes.
type PCSource interface {
	AllowedPCs(name string, mono bool, exclude ...int) []int
}

// XToCenter maps a horizontal position in [0,1] to a note inside r. Values
// outside [0,1] are clamped; halves round to even.
func XToCenter(x float64, r Register) int {
	x = util.Clamp(x, 0, 1)
	return int(math.RoundToEven(float64(r.Low) + x*float64(r.High-r.Low)))
}

// Nearest returns the instance of pc closest to center within r. On a tie
// the lower note wins.
func Nearest(pc, center int, r Register) (int, bool) {
	best, bestDist := 0, math.MaxInt
	for k := 0; k < maxOctaves; k++ {
		n := pc + 12*k
		if !r.Contains(n) {
			continue
		}
		if d := util.Abs(n - center); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best, bestDist != math.MaxInt
}

// Lowest returns the lowest instance of pc within r.
func Lowest(pc int, r Register) (int, bool) {
	for k := 0; k < maxOctaves; k++ {
		if n := pc + 12*k; r.Contains(n) {
			return n, true
		}
	}
	return 0, false
}

// Velocity is highest at the register midpoint and falls linearly to vr.Min
// at either edge.
func Velocity(center int, r Register, vr VelocityRange) int {
	mid := (r.Low + r.High) / 2
	half := math.Max(1, float64(r.High-r.Low)/2)
	dist := math.Min(1, float64(util.Abs(center-mid))/half)
	v := int(float64(vr.Max) - float64(vr.Max-vr.Min)*dist)
	return util.Clamp(v, vr.Min, vr.Max)
}

// ChoosePCs samples pitch classes for a hand. pressedNow press edges ask for
// that many distinct pitch classes (one when zero); a single request uses the
// mono tag set. Sampling is without replacement and capped at what the chord
// offers.
func ChoosePCs(rng *rand.Rand, src PCSource, chord string, pressedNow int) []int {
	n := pressedNow
	if n <= 0 {
		n = 1
	}
	pcs := src.AllowedPCs(chord, n == 1)
	if len(pcs) == 0 {
		return nil
	}
	k := min(n, len(pcs))
	out := make([]int, k)
	for i, j := range rng.Perm(len(pcs))[:k] {
		out[i] = pcs[j]
	}
	return out
}
