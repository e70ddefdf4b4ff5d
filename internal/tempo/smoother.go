// Package tempo follows camera motion and stretches MIDI playback to match.
package tempo

import (
	"sync"

	"github.com/ayusman/pianogames/internal/util"
)

// Smoother is an exponential moving average of raw motion intensity. It is
// safe for one writer and many readers.
type Smoother struct {
	mu    sync.Mutex
	alpha float64
	level float64
}

// NewSmoother creates a smoother starting at level 0. alpha is clamped to
// [0,1]; smaller values react more slowly.
func NewSmoother(alpha float64) *Smoother {
	return &Smoother{alpha: util.Clamp(alpha, 0, 1)}
}

// Add folds one raw sample into the level and returns the new level.
func (s *Smoother) Add(raw float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = s.level*(1-s.alpha) + raw*s.alpha
	return s.level
}

// Level returns the current smoothed level.
func (s *Smoother) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// SetAlpha changes the smoothing factor, clamped to [0,1].
func (s *Smoother) SetAlpha(alpha float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alpha = util.Clamp(alpha, 0, 1)
}

// Reset returns the level to 0.
func (s *Smoother) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = 0
}
