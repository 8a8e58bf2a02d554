package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/puddle/components"
)

// FrameStats summarizes one frame. Mass is taken as 1 for every particle.
type FrameStats struct {
	Tick  int64 `csv:"tick"`
	Count int   `csv:"count"`

	// Speed distribution
	MeanSpeed float64 `csv:"mean_speed"`
	StdSpeed  float64 `csv:"std_speed"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	MaxSpeed  float64 `csv:"max_speed"`

	KineticEnergy float64 `csv:"kinetic_energy"`
	MeanForce     float64 `csv:"mean_force"`

	// Where the fluid sits
	CentroidX   float64 `csv:"centroid_x"`
	CentroidY   float64 `csv:"centroid_y"`
	OutOfBounds int     `csv:"out_of_bounds"`
}

// ComputeFrameStats calculates speed, energy and position statistics for a frame.
func ComputeFrameStats(f components.Frame) FrameStats {
	s := FrameStats{Tick: f.Tick, Count: f.Len()}
	n := f.Len()
	if n == 0 {
		return s
	}

	speeds := make([]float64, n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range f.Particles {
		speeds[i] = p.Speed()
		xs[i] = p.Pos.X
		ys[i] = p.Pos.Y
		if p.Pos.X < 0 || p.Pos.X > f.Bounds.Width || p.Pos.Y < 0 || p.Pos.Y > f.Bounds.Height {
			s.OutOfBounds++
		}
	}

	s.MeanSpeed, s.StdSpeed = stat.MeanStdDev(speeds, nil)
	if math.IsNaN(s.StdSpeed) {
		s.StdSpeed = 0 // single sample
	}
	s.KineticEnergy = 0.5 * floats.Dot(speeds, speeds)
	s.CentroidX = stat.Mean(xs, nil)
	s.CentroidY = stat.Mean(ys, nil)

	sort.Float64s(speeds)
	s.SpeedP50 = stat.Quantile(0.5, stat.Empirical, speeds, nil)
	s.SpeedP90 = stat.Quantile(0.9, stat.Empirical, speeds, nil)
	s.MaxSpeed = speeds[n-1]

	if len(f.Forces) > 0 {
		mags := make([]float64, len(f.Forces))
		for i, force := range f.Forces {
			mags[i] = math.Hypot(force.X, force.Y)
		}
		s.MeanForce = stat.Mean(mags, nil)
	}

	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", s.Tick),
		slog.Int("count", s.Count),
		slog.Float64("mean_speed", s.MeanSpeed),
		slog.Float64("std_speed", s.StdSpeed),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("mean_force", s.MeanForce),
		slog.Float64("centroid_x", s.CentroidX),
		slog.Float64("centroid_y", s.CentroidY),
		slog.Int("out_of_bounds", s.OutOfBounds),
	)
}

// LogStats logs the frame stats using slog.
func (s FrameStats) LogStats() {
	slog.Info("frame",
		"tick", s.Tick,
		"count", s.Count,
		"mean_speed", s.MeanSpeed,
		"max_speed", s.MaxSpeed,
		"kinetic_energy", s.KineticEnergy,
		"centroid_y", s.CentroidY,
	)
}
