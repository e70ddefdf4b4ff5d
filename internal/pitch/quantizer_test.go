package pitch

import (
	"math/rand"
	"testing"
)

func push(q *Quantizer, seq ...int) []Decision {
	var out []Decision
	for _, n := range seq {
		if d := q.Push(n); d.Changed() {
			out = append(out, d)
		}
	}
	return out
}

func TestQuantizer_Debounce(t *testing.T) {
	q := NewQuantizer(3, 2)
	got := push(q, 67, 67, Silence, Silence)
	want := []Decision{
		{Off: Silence, On: 67},
		{Off: 67, On: Silence},
	}
	if len(got) != len(want) {
		t.Fatalf("decisions = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("decision %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestQuantizer_GlitchIgnored(t *testing.T) {
	q := NewQuantizer(3, 2)
	got := push(q, 60, 60, 72, 60, 60)
	if len(got) != 1 || got[0].On != 60 {
		t.Errorf("decisions = %+v, want a single note-on for 60", got)
	}
	if q.Current() != 60 {
		t.Errorf("Current() = %d, want 60", q.Current())
	}
}

func TestQuantizer_ChangeSendsOffThenOn(t *testing.T) {
	q := NewQuantizer(3, 2)
	push(q, 60, 60)
	got := push(q, 62, 62)
	if len(got) != 1 || got[0] != (Decision{Off: 60, On: 62}) {
		t.Errorf("decisions = %+v, want off 60 / on 62", got)
	}
}

func TestQuantizer_PassThrough(t *testing.T) {
	q := NewQuantizer(1, 1)
	got := push(q, 60, 62, 62, Silence)
	want := []Decision{
		{Off: Silence, On: 60},
		{Off: 60, On: 62},
		{Off: 62, On: Silence},
	}
	if len(got) != len(want) {
		t.Fatalf("decisions = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("decision %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestQuantizer_TieGoesToFirstSeen(t *testing.T) {
	q := NewQuantizer(4, 2)
	got := push(q, 64, 65, 65, 64)
	// After the third block 65 wins with two votes. The fourth block ties
	// 64 and 65 at two each; 64 was seen first.
	if len(got) != 2 {
		t.Fatalf("decisions = %+v, want two", got)
	}
	if got[1] != (Decision{Off: 65, On: 64}) {
		t.Errorf("tie decision = %+v, want off 65 / on 64", got[1])
	}
}

func TestQuantizer_NeverDoubleNoteOn(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for window := 1; window <= 5; window++ {
		for debounce := 1; debounce <= window; debounce++ {
			q := NewQuantizer(window, debounce)
			sounding := Silence
			for i := 0; i < 2000; i++ {
				n := Silence
				if r := rng.Intn(4); r > 0 {
					n = 60 + r
				}
				d := q.Push(n)
				if d.Off != Silence {
					if d.Off != sounding {
						t.Fatalf("w=%d d=%d: off %d while %d sounds", window, debounce, d.Off, sounding)
					}
					sounding = Silence
				}
				if d.On != Silence {
					if sounding != Silence {
						t.Fatalf("w=%d d=%d: on %d while %d sounds", window, debounce, d.On, sounding)
					}
					sounding = d.On
				}
				if q.Current() != sounding {
					t.Fatalf("w=%d d=%d: Current() = %d, tracked %d", window, debounce, q.Current(), sounding)
				}
			}
			if got := q.Reset(); got != sounding {
				t.Errorf("Reset() = %d, want %d", got, sounding)
			}
			if q.Current() != Silence {
				t.Error("Current() after Reset should be Silence")
			}
		}
	}
}
