package tempo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ayusman/pianogames/internal/config"
)

func TestSmoother_StaysWithinInputRange(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for _, alpha := range []float64{0, 0.005, 0.3, 1} {
		s := NewSmoother(alpha)
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < 1000; i++ {
			raw := 20 + rng.Float64()*80
			lo, hi = math.Min(lo, raw), math.Max(hi, raw)
			level := s.Add(raw)
			if level == 0 {
				continue
			}
			if level < 0 || level > hi+1e-9 {
				t.Fatalf("alpha=%v: level %f outside [0, %f]", alpha, level, hi)
			}
		}
	}
}

func TestSmoother_Add(t *testing.T) {
	s := NewSmoother(0.5)
	if got := s.Add(10); got != 5 {
		t.Errorf("first Add = %f, want 5", got)
	}
	if got := s.Add(10); got != 7.5 {
		t.Errorf("second Add = %f, want 7.5", got)
	}

	full := NewSmoother(4)
	if got := full.Add(12); got != 12 {
		t.Errorf("alpha clamped to 1 should track raw, got %f", got)
	}

	s.Reset()
	if s.Level() != 0 {
		t.Errorf("Level after Reset = %f", s.Level())
	}
}

func TestMapper_Tempo(t *testing.T) {
	m := NewMapper(config.DefaultConductor())

	tests := []struct {
		name  string
		base  float64
		level float64
		want  float64
	}{
		{"no motion halves tempo", 120, 0, 60},
		{"small motion", 120, 3, 180},
		{"clamped high", 120, 90, 300},
		{"scale capped", 100, 1000, 300},
		{"clamped low", 1, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Tempo(tt.base, tt.level); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Tempo(%v, %v) = %v, want %v", tt.base, tt.level, got, tt.want)
			}
		})
	}
}

func TestMapper_AlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 2000; i++ {
		m := NewMapper(config.DefaultConductor())
		m.Sensitivity = rng.Float64() * 50
		tempo := m.Tempo(1+rng.Float64()*400, rng.Float64()*500)
		if tempo < 1 || tempo > 300 {
			t.Fatalf("tempo %f out of range", tempo)
		}
	}
}

func TestMapper_NegativeSensitivity(t *testing.T) {
	c := config.DefaultConductor()
	c.Sensitivity = -4
	m := NewMapper(c)
	if got := m.Tempo(120, 60); got != 60 {
		t.Errorf("negative sensitivity should act as 0, got %v", got)
	}
	if got := m.Stretch(120, 0); got != 2 {
		t.Errorf("Stretch at rest = %v, want 2", got)
	}
}
