// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Spatial index kinds accepted by IndexConfig.Kind.
const (
	IndexQuadtree = "quadtree"
	IndexGrid     = "grid"
)

// Layout kinds accepted by LayoutConfig.Kind.
const (
	LayoutUniform = "uniform"
	LayoutNoise   = "noise"
	LayoutLattice = "lattice"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Layout     LayoutConfig     `yaml:"layout"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Boundary   BoundaryConfig   `yaml:"boundary"`
	Index      IndexConfig      `yaml:"index"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the simulated domain size in world units.
// The domain is y-up: y = 0 is the floor.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PopulationConfig holds the fixed particle count for the run.
type PopulationConfig struct {
	Count int `yaml:"count"`
}

// LayoutConfig selects how initial positions are sampled.
type LayoutConfig struct {
	Kind          string  `yaml:"kind"`
	NoiseScale    float64 `yaml:"noise_scale"`    // Noise frequency per world unit
	NoiseContrast float64 `yaml:"noise_contrast"` // Acceptance probability = noise^contrast
	MaxTries      int     `yaml:"max_tries"`      // Rejection attempts before accepting a sample anyway
	Spacing       float64 `yaml:"spacing"`        // Lattice pitch
}

// PhysicsConfig holds the force model and integrator coefficients.
type PhysicsConfig struct {
	DT          float64 `yaml:"dt"`
	Damping     float64 `yaml:"damping"`      // Per-tick velocity multiplier
	Gravity     float64 `yaml:"gravity"`      // Constant y-force bias (negative pulls down)
	MinDistance float64 `yaml:"min_distance"` // Pairs closer than this are skipped
	MaxDistance float64 `yaml:"max_distance"` // Cutoff radius for pressure and viscosity
	Pressure    float64 `yaml:"pressure"`
	Viscosity   float64 `yaml:"viscosity"`
}

// BoundaryConfig holds the wall collision policy.
type BoundaryConfig struct {
	OffsetX     float64 `yaml:"offset_x"`     // Inset from the side walls after a clamp
	OffsetY     float64 `yaml:"offset_y"`     // Inset from floor and ceiling after a clamp
	Rebound     float64 `yaml:"rebound"`      // Fixed speed assigned after a wall hit
	FloorLaunch float64 `yaml:"floor_launch"` // Upper bound of the random upward speed at the floor
}

// IndexConfig holds spatial index parameters.
type IndexConfig struct {
	Kind         string  `yaml:"kind"`          // quadtree | grid
	LeafCapacity int     `yaml:"leaf_capacity"` // Quadtree leaf split threshold
	MaxDepth     int     `yaml:"max_depth"`     // Quadtree depth cap
	CellSize     float64 `yaml:"cell_size"`     // Grid cell size (0 = physics.max_distance)
}

// ParallelConfig controls force accumulation across goroutines.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS, 1 = single-threaded
	Threshold int `yaml:"threshold"` // Minimum particle count before splitting work
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`          // Ticks per stats.csv row
	PerfCollectorWindow int `yaml:"perf_collector_window"` // Ticks averaged by the perf collector
	LogEvery            int `yaml:"log_every"`             // Ticks between frame log lines (0 = off)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MaxDistanceSq float64 // Physics.MaxDistance squared
	CellSize      float64 // Effective grid cell size
	ScreenW32     float32 // Screen.Width as float32
	ScreenH32     float32 // Screen.Height as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	cfg.computeDerived()
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Prepare(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Prepare validates c and recomputes derived values. Call it after editing
// a loaded config in place.
func (c *Config) Prepare() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate checks numeric bounds and returns all violations joined together.
// Checks are written so that NaN fails them.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !(c.World.Width > 0) || !(c.World.Height > 0) {
		bad("world size must be positive, got %gx%g", c.World.Width, c.World.Height)
	}
	if c.Population.Count < 1 {
		bad("population.count must be at least 1, got %d", c.Population.Count)
	}
	if !(c.Physics.MinDistance >= 0) {
		bad("physics.min_distance must not be negative, got %g", c.Physics.MinDistance)
	}
	if !(c.Physics.MinDistance < c.Physics.MaxDistance) {
		bad("physics.min_distance (%g) must be less than physics.max_distance (%g)",
			c.Physics.MinDistance, c.Physics.MaxDistance)
	}
	if !(c.Physics.DT > 0) {
		bad("physics.dt must be positive, got %g", c.Physics.DT)
	}
	if c.Index.LeafCapacity < 1 {
		bad("index.leaf_capacity must be at least 1, got %d", c.Index.LeafCapacity)
	}
	if c.Index.MaxDepth < 1 {
		bad("index.max_depth must be at least 1, got %d", c.Index.MaxDepth)
	}
	if !(c.Boundary.OffsetX >= 0) || (c.World.Width > 0 && !(c.Boundary.OffsetX < c.World.Width/2)) {
		bad("boundary.offset_x must be in [0, width/2), got %g", c.Boundary.OffsetX)
	}
	if !(c.Boundary.OffsetY >= 0) || (c.World.Height > 0 && !(c.Boundary.OffsetY < c.World.Height/2)) {
		bad("boundary.offset_y must be in [0, height/2), got %g", c.Boundary.OffsetY)
	}
	if !(c.Boundary.Rebound >= 0) {
		bad("boundary.rebound must not be negative, got %g", c.Boundary.Rebound)
	}
	if !(c.Boundary.FloorLaunch >= 0) {
		bad("boundary.floor_launch must not be negative, got %g", c.Boundary.FloorLaunch)
	}
	switch c.Index.Kind {
	case IndexQuadtree, IndexGrid:
	default:
		bad("unknown index.kind %q", c.Index.Kind)
	}
	if !(c.Index.CellSize >= 0) {
		bad("index.cell_size must not be negative, got %g", c.Index.CellSize)
	}
	if c.Parallel.Workers < 0 {
		bad("parallel.workers must not be negative, got %d", c.Parallel.Workers)
	}

	switch c.Layout.Kind {
	case LayoutUniform:
	case LayoutNoise:
		if !(c.Layout.NoiseScale > 0) {
			bad("layout.noise_scale must be positive, got %g", c.Layout.NoiseScale)
		}
	case LayoutLattice:
		if !(c.Layout.Spacing > 0) {
			bad("layout.spacing must be positive, got %g", c.Layout.Spacing)
		}
	default:
		bad("unknown layout.kind %q", c.Layout.Kind)
	}

	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.MaxDistanceSq = c.Physics.MaxDistance * c.Physics.MaxDistance

	// Grid cells default to the cutoff radius so a query touches a 3x3 block
	c.Derived.CellSize = c.Index.CellSize
	if c.Derived.CellSize == 0 {
		c.Derived.CellSize = c.Physics.MaxDistance
	}
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
