package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/puddle/components"
)

func TestComputeFrameStats(t *testing.T) {
	f := components.Frame{
		Tick:   7,
		Bounds: components.Bounds{Width: 10, Height: 10},
		Particles: []components.Particle{
			{Pos: components.Position{X: 2, Y: 4}, Vel: components.Velocity{X: 3}},
			{Pos: components.Position{X: -1, Y: 6}, Vel: components.Velocity{Y: 4}},
		},
		Forces: []components.Force{{X: 3, Y: 4}, {}},
	}

	s := ComputeFrameStats(f)

	if s.Tick != 7 || s.Count != 2 {
		t.Fatalf("tick/count = %d/%d, want 7/2", s.Tick, s.Count)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"mean speed", s.MeanSpeed, 3.5},
		{"std speed", s.StdSpeed, math.Sqrt(0.5)},
		{"p50", s.SpeedP50, 3},
		{"p90", s.SpeedP90, 4},
		{"max speed", s.MaxSpeed, 4},
		{"kinetic energy", s.KineticEnergy, 12.5},
		{"mean force", s.MeanForce, 2.5},
		{"centroid x", s.CentroidX, 0.5},
		{"centroid y", s.CentroidY, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-9 {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	if s.OutOfBounds != 1 {
		t.Errorf("out_of_bounds = %d, want 1", s.OutOfBounds)
	}
}

func TestComputeFrameStatsSingleParticle(t *testing.T) {
	f := components.Frame{
		Bounds:    components.Bounds{Width: 10, Height: 10},
		Particles: []components.Particle{{Vel: components.Velocity{X: 2}}},
	}

	s := ComputeFrameStats(f)
	if s.StdSpeed != 0 {
		t.Errorf("std of one sample = %v, want 0", s.StdSpeed)
	}
	if s.MeanForce != 0 {
		t.Errorf("mean force without forces = %v, want 0", s.MeanForce)
	}
}

func TestComputeFrameStatsEmpty(t *testing.T) {
	s := ComputeFrameStats(components.Frame{Tick: 3})

	if s.Tick != 3 || s.Count != 0 || s.MeanSpeed != 0 || s.KineticEnergy != 0 {
		t.Errorf("empty frame should return zeros, got %+v", s)
	}
}
