package session

import (
	"math/rand"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/detector"
)

func TestParticles_CapDropsOldest(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := NewParticles(5)

	p.Spawn(rng, 1, 1, 3)
	p.Spawn(rng, 2, 2, 5)

	if got := p.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}
	for _, q := range p.All() {
		if q.X != 2 {
			t.Errorf("kept particle from x=%v, want only the newest batch", q.X)
		}
	}
}

func TestParticles_SpawnRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	p := NewParticles(100)
	p.Spawn(rng, 50, 50, 40)

	for _, q := range p.All() {
		if q.Life < ParticleLifeMin || q.Life > ParticleLifeMax {
			t.Errorf("life %v outside [%v, %v]", q.Life, ParticleLifeMin, ParticleLifeMax)
		}
		if q.Size < int(ParticleSizeMin) || q.Size > int(ParticleSizeMax) {
			t.Errorf("size %d outside [%v, %v]", q.Size, ParticleSizeMin, ParticleSizeMax)
		}
		if q.VY >= 0 {
			t.Errorf("VY = %v, want upwards", q.VY)
		}
		if q.R < 100 || q.G < 100 || q.B < 100 {
			t.Errorf("color (%d,%d,%d) too dark", q.R, q.G, q.B)
		}
		if q.Alpha() != 1 {
			t.Errorf("fresh Alpha() = %v, want 1", q.Alpha())
		}
	}
}

func TestParticles_Update(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		dt   float64
		w, h int
		want int
	}{
		{name: "alive", x: 500, y: 500, dt: 0.1, w: 1000, h: 1000, want: 10},
		{name: "expired", x: 500, y: 500, dt: ParticleLifeMax + 0.1, w: 100000, h: 100000, want: 0},
		{name: "left the frame", x: 10, y: 10, dt: 0.5, w: 20, h: 20, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParticles(100)
			p.Spawn(rand.New(rand.NewSource(3)), tt.x, tt.y, 10)
			p.Update(tt.dt, tt.w, tt.h)
			if got := p.Len(); got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParticle_Alpha(t *testing.T) {
	tests := []struct {
		p    Particle
		want float64
	}{
		{Particle{Life: 0.5, MaxLife: 1}, 0.5},
		{Particle{Life: -1, MaxLife: 1}, 0},
		{Particle{Life: 1}, 0},
	}
	for _, tt := range tests {
		if got := tt.p.Alpha(); got != tt.want {
			t.Errorf("%+v.Alpha() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestSession_PressSpawnsParticles(t *testing.T) {
	f := newFixture(t, nil, func(c *config.AirPiano) { c.MaxParticles = 20 })

	f.frame(t, detector.FistLandmarks())

	if got := f.s.Snapshot().Particles; got != 20 {
		t.Errorf("Particles = %d, want the cap of 20", got)
	}
	for _, q := range f.s.Particles() {
		if q.X < 0 || q.X >= 640 || q.Y < 0 || q.Y >= 480 {
			t.Errorf("particle at (%v, %v) outside the frame", q.X, q.Y)
		}
	}
}

func TestDrawOverlay(t *testing.T) {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()

	parts := []Particle{{X: 50, Y: 70, R: 255, G: 255, B: 255, Size: 10, Life: 1, MaxLife: 1}}
	DrawOverlay(&frame, State{Progression: "Pop", Chord: "C", Steps: 4}, parts)

	if v := frame.GetUCharAt(70, 50*3); v == 0 {
		t.Error("particle pixel still black")
	}
	if v := frame.GetUCharAt(95, 95*3); v != 0 {
		t.Errorf("far corner = %d, want untouched", v)
	}

	empty := gocv.NewMat()
	defer empty.Close()
	DrawOverlay(&empty, State{}, parts)
}
