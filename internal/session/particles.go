package session

import (
	"math"
	"math/rand"
)

// Particle tuning in pixels and seconds.
const (
	ParticleLifeMin  = 0.8
	ParticleLifeMax  = 1.8
	ParticleSpeedMin = 70.0
	ParticleSpeedMax = 170.0
	ParticleSizeMin  = 6.0
	ParticleSizeMax  = 16.0
	Gravity          = 40.0
	// spread is the half-angle around straight up that particles leave at.
	spread = 0.8
)

// Particle is one petal drawn over the preview.
type Particle struct {
	X, Y    float64
	VX, VY  float64
	R, G, B uint8
	Size    int
	Life    float64
	MaxLife float64
}

// Alpha returns the remaining life fraction in 0..1.
func (p Particle) Alpha() float64 {
	if p.MaxLife <= 0 {
		return 0
	}
	return math.Min(1, math.Max(0, p.Life/p.MaxLife))
}

// Particles is a bounded particle population. When it grows past its cap
// the oldest particles go first.
type Particles struct {
	max  int
	list []Particle
}

// NewParticles creates an empty population capped at max.
func NewParticles(max int) *Particles {
	return &Particles{max: max}
}

// Spawn adds n particles at (x, y) flying upwards.
func (p *Particles) Spawn(rng *rand.Rand, x, y float64, n int) {
	for i := 0; i < n; i++ {
		speed := uniform(rng, ParticleSpeedMin, ParticleSpeedMax)
		angle := uniform(rng, -math.Pi/2-spread, -math.Pi/2+spread)
		life := uniform(rng, ParticleLifeMin, ParticleLifeMax)
		p.list = append(p.list, Particle{
			X:       x,
			Y:       y,
			VX:      speed * math.Cos(angle),
			VY:      speed * math.Sin(angle),
			R:       uint8(100 + rng.Intn(156)),
			G:       uint8(100 + rng.Intn(156)),
			B:       uint8(100 + rng.Intn(156)),
			Size:    int(uniform(rng, ParticleSizeMin, ParticleSizeMax)),
			Life:    life,
			MaxLife: life,
		})
	}
	p.trim()
}

// Update advances every particle by dt seconds and drops the ones that died
// or left the w x h frame.
func (p *Particles) Update(dt float64, w, h int) {
	alive := p.list[:0]
	for _, q := range p.list {
		q.VY += Gravity * dt
		q.X += q.VX * dt
		q.Y += q.VY * dt
		q.Life -= dt
		if q.X >= 0 && q.X < float64(w) && q.Y >= 0 && q.Y < float64(h) && q.Life > 0 {
			alive = append(alive, q)
		}
	}
	p.list = alive
	p.trim()
}

// Len returns the population size.
func (p *Particles) Len() int {
	return len(p.list)
}

// All returns a copy of the population, oldest first.
func (p *Particles) All() []Particle {
	return append([]Particle(nil), p.list...)
}

// Clear removes every particle.
func (p *Particles) Clear() {
	p.list = p.list[:0]
}

func (p *Particles) trim() {
	if p.max >= 0 && len(p.list) > p.max {
		p.list = append(p.list[:0], p.list[len(p.list)-p.max:]...)
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
