package expression

import (
	"sync"

	"github.com/ayusman/pianogames/internal/detector"
	"github.com/ayusman/pianogames/internal/util"
)

// Scores maps emotion probabilities to the happiness and special scores.
func Scores(e detector.Emotions) (happy, special float64) {
	happy = 100 * (0.9*e[detector.Happy] + 0.5*e[detector.Neutral] + 0.2*e[detector.Surprise])
	special = 100 * e[detector.Surprise]
	return happy, special
}

// Mood holds the current scores. The camera goroutine writes it and the
// player reads it once per note.
type Mood struct {
	mu      sync.Mutex
	happy   float64
	special float64
}

// NewMood creates a mood with the given starting scores.
func NewMood(happy, special float64) *Mood {
	m := &Mood{}
	m.Set(happy, special)
	return m
}

// Set replaces both scores, clamped to 0..100.
func (m *Mood) Set(happy, special float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.happy = util.Clamp(happy, 0, 100)
	m.special = util.Clamp(special, 0, 100)
}

// SetEmotions replaces the scores from a classifier reading.
func (m *Mood) SetEmotions(e detector.Emotions) {
	m.Set(Scores(e))
}

// Get returns the current scores.
func (m *Mood) Get() (happy, special float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.happy, m.special
}
