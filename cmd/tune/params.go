package main

import (
	"github.com/pthm-cable/puddle/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable physics parameters.
// Defaults are taken from the base config.
func NewParamVector(base *config.Config) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "pressure", Path: "physics.pressure", Min: 0.2, Max: 3.0, Default: base.Physics.Pressure},
			{Name: "viscosity", Path: "physics.viscosity", Min: 0.0, Max: 1.0, Default: base.Physics.Viscosity},
			{Name: "damping", Path: "physics.damping", Min: 0.8, Max: 0.999, Default: base.Physics.Damping},
			{Name: "rebound", Path: "boundary.rebound", Min: 0.0, Max: 1.0, Default: base.Boundary.Rebound},
			{Name: "floor_launch", Path: "boundary.floor_launch", Min: 0.0, Max: 8.0, Default: base.Boundary.FloorLaunch},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Physics.Pressure = clamped[0]
	cfg.Physics.Viscosity = clamped[1]
	cfg.Physics.Damping = clamped[2]
	cfg.Boundary.Rebound = clamped[3]
	cfg.Boundary.FloorLaunch = clamped[4]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Physics.Pressure,
		cfg.Physics.Viscosity,
		cfg.Physics.Damping,
		cfg.Boundary.Rebound,
		cfg.Boundary.FloorLaunch,
	}
}
