package notes

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

var piano = Register{Low: 40, High: 96}

func TestXToCenter(t *testing.T) {
	tests := []struct {
		x    float64
		want int
	}{
		{0, 40},
		{1, 96},
		{0.5, 68},
		{-3, 40},
		{7, 96},
		{0.25, 54},
	}
	for _, tt := range tests {
		if got := XToCenter(tt.x, piano); got != tt.want {
			t.Errorf("XToCenter(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
}

func TestNearest(t *testing.T) {
	tests := []struct {
		name   string
		pc     int
		center int
		r      Register
		want   int
		wantOK bool
	}{
		{"middle C", 0, 62, piano, 60, true},
		{"tie goes low", 6, 60, piano, 54, true},
		{"above register", 0, 100, piano, 96, true},
		{"only instance", 4, 40, Register{Low: 40, High: 45}, 40, true},
		{"none in register", 1, 43, Register{Low: 42, High: 48}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Nearest(tt.pc, tt.center, tt.r)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Nearest = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLowest(t *testing.T) {
	if n, ok := Lowest(0, piano); !ok || n != 48 {
		t.Errorf("Lowest(C) = %d, %v; want 48", n, ok)
	}
	if n, ok := Lowest(4, piano); !ok || n != 40 {
		t.Errorf("Lowest(E) = %d, %v; want 40", n, ok)
	}
	if _, ok := Lowest(1, Register{Low: 2, High: 12}); ok {
		t.Error("Lowest(C#) in 2..12 should fail")
	}
}

func TestVelocity(t *testing.T) {
	vr := VelocityRange{Min: 40, Max: 120}
	tests := []struct {
		center int
		want   int
	}{
		{68, 120},
		{40, 40},
		{96, 40},
		{54, 80},
		{200, 40},
	}
	for _, tt := range tests {
		if got := Velocity(tt.center, piano, vr); got != tt.want {
			t.Errorf("Velocity(%d) = %d, want %d", tt.center, got, tt.want)
		}
	}
}

type fakePCs struct {
	mono, poly []int
	lastMono   bool
}

func (f *fakePCs) AllowedPCs(name string, mono bool, exclude ...int) []int {
	f.lastMono = mono
	if mono {
		return f.mono
	}
	return f.poly
}

func TestChoosePCs(t *testing.T) {
	src := &fakePCs{mono: []int{0, 4, 7}, poly: []int{0, 2, 4, 7, 11}}
	rng := rand.New(rand.NewSource(1))

	t.Run("no press uses one mono pc", func(t *testing.T) {
		got := ChoosePCs(rng, src, "C", 0)
		if len(got) != 1 || !src.lastMono {
			t.Errorf("got %v mono=%v", got, src.lastMono)
		}
	})

	t.Run("three presses sample three distinct poly pcs", func(t *testing.T) {
		got := ChoosePCs(rng, src, "C", 3)
		if len(got) != 3 || src.lastMono {
			t.Fatalf("got %v mono=%v", got, src.lastMono)
		}
		seen := map[int]bool{}
		for _, pc := range got {
			if seen[pc] {
				t.Errorf("duplicate pc %d in %v", pc, got)
			}
			seen[pc] = true
		}
	})

	t.Run("capped at available", func(t *testing.T) {
		got := ChoosePCs(rng, src, "C", 9)
		sort.Ints(got)
		if !reflect.DeepEqual(got, src.poly) {
			t.Errorf("got %v, want all of %v", got, src.poly)
		}
	})

	t.Run("unknown chord", func(t *testing.T) {
		if got := ChoosePCs(rng, &fakePCs{}, "X", 2); got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})

	t.Run("seeded sources agree", func(t *testing.T) {
		a := ChoosePCs(rand.New(rand.NewSource(42)), src, "C", 2)
		b := ChoosePCs(rand.New(rand.NewSource(42)), src, "C", 2)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%v != %v", a, b)
		}
	})
}
