package expression

import (
	"math/rand"
	"strings"

	"github.com/ayusman/pianogames/internal/util"
)

// Mode names used in the expression table.
const (
	Lydian     = "Lydian"
	Mixolydian = "Mixolydian"
	Dorian     = "Dorian"
	Aeolian    = "Aeolian"
	Phrygian   = "Phrygian"
	Locrian    = "Locrian"
)

// Mode alters one major-scale degree by Delta semitones.
type Mode struct {
	Name   string
	Degree int
	Delta  int
}

// Modes lists the alterations in the order they are tried. The first mode
// whose trial succeeds wins.
var Modes = []Mode{
	{Lydian, 4, +1},
	{Mixolydian, 7, -1},
	{Dorian, 3, -1},
	{Aeolian, 6, -1},
	{Phrygian, 2, -1},
	{Locrian, 5, -1},
}

// majorOffsets maps degree-1 to its semitone offset above the tonic.
var majorOffsets = [7]int{0, 2, 4, 5, 7, 9, 11}

// Keys are the folder names of the music library in pitch-class order.
var Keys = []string{"C", "Cs", "D", "Ds", "E", "F", "Fs", "G", "Gs", "A", "As", "B"}

// KeyPC returns the pitch class of a library folder name such as "Fs".
func KeyPC(name string) (int, bool) {
	for i, k := range Keys {
		if strings.EqualFold(k, name) {
			return i, true
		}
	}
	return 0, false
}

// MajorDegree returns the 1-based degree of pitch class pc in the major
// scale on root. ok is false for notes outside the scale.
func MajorDegree(root, pc int) (degree int, ok bool) {
	rel := ((pc-root)%12 + 12) % 12
	for i, off := range majorOffsets {
		if off == rel {
			return i + 1, true
		}
	}
	return 0, false
}

// Alter returns note, possibly shifted by the first mode that targets its
// degree and whose random trial against probs succeeds. Each matching mode
// gets one trial.
func Alter(rng *rand.Rand, note, root int, probs map[string]float64) int {
	deg, ok := MajorDegree(root, note%12)
	if !ok {
		return note
	}
	for _, m := range Modes {
		if m.Degree != deg {
			continue
		}
		if rng.Float64() < probs[m.Name] {
			return util.ClampNote(note + m.Delta)
		}
	}
	return note
}
