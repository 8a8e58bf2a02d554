package telemetry

import (
	"fmt"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
)

// Recorder is a frame consumer that logs and persists run statistics.
// Frame stats are logged every LogEvery ticks and written every StatsWindow ticks.
type Recorder struct {
	out      *OutputManager
	perf     *PerfCollector
	logStats bool

	statsWindow int64
	logEvery    int64

	last FrameStats
}

// NewRecorder creates a recorder. out and perf may be nil.
func NewRecorder(cfg *config.Config, out *OutputManager, perf *PerfCollector, logStats bool) *Recorder {
	return &Recorder{
		out:         out,
		perf:        perf,
		logStats:    logStats,
		statsWindow: int64(cfg.Telemetry.StatsWindow),
		logEvery:    int64(cfg.Telemetry.LogEvery),
	}
}

// Consume implements the frame consumer contract.
func (r *Recorder) Consume(f components.Frame) error {
	logNow := r.logStats && r.logEvery > 0 && f.Tick%r.logEvery == 0
	writeNow := r.out != nil && r.statsWindow > 0 && f.Tick%r.statsWindow == 0
	if !logNow && !writeNow {
		return nil
	}

	r.last = ComputeFrameStats(f)

	if logNow {
		r.last.LogStats()
		if r.perf != nil {
			r.perf.Stats().LogStats()
		}
	}

	if writeNow {
		if err := r.out.WriteStats(r.last); err != nil {
			return fmt.Errorf("recorder: %w", err)
		}
		if err := r.out.WriteParticles(f); err != nil {
			return fmt.Errorf("recorder: %w", err)
		}
		if r.perf != nil {
			if err := r.out.WritePerf(r.perf.Stats(), f.Tick); err != nil {
				return fmt.Errorf("recorder: %w", err)
			}
		}
	}
	return nil
}

// Last returns the most recently computed frame stats.
func (r *Recorder) Last() FrameStats {
	return r.last
}
