package util

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"below", -1, 0},
		{"inside", 0.4, 0.4},
		{"above", 7, 1},
		{"lower edge", 0, 0},
		{"upper edge", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, 0, 1); got != tt.want {
				t.Errorf("Clamp(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestClampNote(t *testing.T) {
	if got := ClampNote(-5); got != 0 {
		t.Errorf("ClampNote(-5) = %d, want 0", got)
	}
	if got := ClampNote(140); got != 127 {
		t.Errorf("ClampNote(140) = %d, want 127", got)
	}
	if got := ClampNote(60); got != 60 {
		t.Errorf("ClampNote(60) = %d, want 60", got)
	}
}

func TestAbs(t *testing.T) {
	if Abs(-3) != 3 || Abs(3) != 3 || Abs(-2.5) != 2.5 {
		t.Error("Abs returned wrong magnitude")
	}
}
