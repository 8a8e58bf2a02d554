package components

import "math"

// Bounds is the simulated domain [0,Width)x[0,Height), y-up.
type Bounds struct {
	Width, Height float64
}

// Frame is the per-tick view handed to frame consumers.
// The slices are snapshots; writing to them has no effect on the simulation.
type Frame struct {
	Tick      int64
	Bounds    Bounds
	Particles []Particle
	Forces    []Force
}

// Len returns the particle count.
func (f Frame) Len() int {
	return len(f.Particles)
}

func hypot(x, y float64) float64 {
	return math.Sqrt(x*x + y*y)
}
