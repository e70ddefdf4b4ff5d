package pitch

import (
	"sort"

	"github.com/ayusman/pianogames/internal/util"
)

// BluesSteps are the semitone offsets of the blues scale.
var BluesSteps = []int{0, 3, 5, 6, 7, 10}

// Scale is an ascending set of MIDI notes.
type Scale []int

// NewScale builds the scale made of steps transposed from root's pitch class
// across every octave, kept to 0..127.
func NewScale(root int, steps []int) Scale {
	seen := make(map[int]bool)
	var s Scale
	for base := 0; base < 128; base += 12 {
		for _, step := range steps {
			n := base + root%12 + step
			if n < 0 || n > 127 || seen[n] {
				continue
			}
			seen[n] = true
			s = append(s, n)
		}
	}
	sort.Ints(s)
	return s
}

// Chromatic returns every MIDI note.
func Chromatic() Scale {
	s := make(Scale, 128)
	for i := range s {
		s[i] = i
	}
	return s
}

// Snap returns the scale note closest to n; ties go to the lower note.
func (s Scale) Snap(n int) int {
	if len(s) == 0 {
		return n
	}
	best := s[0]
	for _, m := range s[1:] {
		if util.Abs(m-n) < util.Abs(best-n) {
			best = m
		}
	}
	return best
}

// Contains reports whether n is a scale member.
func (s Scale) Contains(n int) bool {
	i := sort.SearchInts(s, n)
	return i < len(s) && s[i] == n
}
