package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
)

// ParticleRecord is one row of particles.csv.
type ParticleRecord struct {
	Tick  int64   `csv:"tick"`
	Index int     `csv:"index"`
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
	VX    float64 `csv:"vx"`
	VY    float64 `csv:"vy"`
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir           string
	statsFile     *os.File
	perfFile      *os.File
	particlesFile *os.File

	// Track if headers have been written
	statsHeaderWritten     bool
	perfHeaderWritten      bool
	particlesHeaderWritten bool

	records []ParticleRecord // reused by WriteParticles
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled). particles.csv is only created
// when dumpParticles is set.
func NewOutputManager(dir string, dumpParticles bool) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "stats.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating stats.csv: %w", err)
	}
	om.statsFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.statsFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	if dumpParticles {
		f, err = os.Create(filepath.Join(dir, "particles.csv"))
		if err != nil {
			om.statsFile.Close()
			om.perfFile.Close()
			return nil, fmt.Errorf("creating particles.csv: %w", err)
		}
		om.particlesFile = f
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats writes a frame stats record to stats.csv.
func (om *OutputManager) WriteStats(stats FrameStats) error {
	if om == nil {
		return nil
	}
	if err := writeCSV([]FrameStats{stats}, om.statsFile, &om.statsHeaderWritten); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	if err := writeCSV([]PerfStatsCSV{stats.ToCSV(windowEnd)}, om.perfFile, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteParticles appends every particle of a frame to particles.csv.
// It is a no-op when particle dumps were not requested.
func (om *OutputManager) WriteParticles(f components.Frame) error {
	if om == nil || om.particlesFile == nil {
		return nil
	}

	om.records = om.records[:0]
	for i, p := range f.Particles {
		om.records = append(om.records, ParticleRecord{
			Tick:  f.Tick,
			Index: i,
			X:     p.Pos.X,
			Y:     p.Pos.Y,
			VX:    p.Vel.X,
			VY:    p.Vel.Y,
		})
	}
	if len(om.records) == 0 {
		return nil
	}

	if err := writeCSV(om.records, om.particlesFile, &om.particlesHeaderWritten); err != nil {
		return fmt.Errorf("writing particles: %w", err)
	}
	return nil
}

// writeCSV marshals records, emitting the header only on the first write.
func writeCSV(records any, f *os.File, headerWritten *bool) error {
	if !*headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.statsFile, om.perfFile, om.particlesFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
