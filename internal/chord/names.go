package chord

import (
	"strconv"
	"strings"
)

// PitchClassNames lists the column order of the chord table, C through B.
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// nameToPC maps note names, including enharmonic spellings, to pitch classes.
var nameToPC = map[string]int{
	"C": 0, "B#": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3, "E": 4, "Fb": 4,
	"F": 5, "E#": 5, "F#": 6, "Gb": 6, "G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10,
	"Bb": 10, "B": 11, "Cb": 11,
}

// PitchClassOf returns the pitch class of a note name such as "Bb" or "F#".
func PitchClassOf(name string) (int, bool) {
	pc, ok := nameToPC[strings.TrimSpace(name)]
	return pc, ok
}

// NoteName renders a MIDI note number as name and octave, e.g. 60 -> "C4".
func NoteName(note int) string {
	if note < 0 {
		return "?"
	}
	return PitchClassNames[note%12] + strconv.Itoa(note/12-1)
}

// splitSlash separates "G7/B" into "G7" and "B". The bass part is empty when
// the name has no slash.
func splitSlash(name string) (base, bass string) {
	base, bass, _ = strings.Cut(name, "/")
	return strings.TrimSpace(base), strings.TrimSpace(bass)
}
