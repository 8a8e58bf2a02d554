package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
	"github.com/pthm-cable/puddle/game"
	"github.com/pthm-cable/puddle/renderer"
	"github.com/pthm-cable/puddle/renderer/terminal"
	"github.com/pthm-cable/puddle/telemetry"
)

const (
	modeWindow   = "window"
	modeTerminal = "terminal"
	modeHeadless = "headless"
)

func main() {
	os.Exit(run())
}

func run() int {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mode := flag.String("mode", modeWindow, "Frame consumer: window, terminal or headless")
	logStats := flag.Bool("log-stats", false, "Output frame and perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dumpParticles := flag.Bool("dump-particles", false, "Write every particle to particles.csv each stats window")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging). The terminal
	// renderer owns the tty, so its logs go to the output directory instead.
	var logOut io.Writer = os.Stdout
	var logFile *os.File
	if *mode == modeTerminal {
		logOut = io.Discard
		if *outputDir != "" {
			if err := os.MkdirAll(*outputDir, 0755); err == nil {
				if f, err := os.Create(filepath.Join(*outputDir, "run.log")); err == nil {
					logFile = f
					logOut = f
				}
			}
		}
	}
	if logFile != nil {
		defer logFile.Close()
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	out, err := telemetry.NewOutputManager(*outputDir, *dumpParticles)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		return 1
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
		return 1
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	sim, err := game.New(cfg, game.Options{Seed: rngSeed, Perf: perf})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}
	defer sim.Close()

	consumers := game.MultiConsumer{telemetry.NewRecorder(cfg, out, perf, *logStats)}

	switch *mode {
	case modeWindow:
		w := renderer.OpenWindow(cfg, "Puddle")
		defer w.Close()
		consumers = append(consumers, game.ConsumerFunc(func(f components.Frame) error {
			perf.RecordFrame()
			return w.Consume(f)
		}))
	case modeTerminal:
		screen, err := tcell.NewScreen()
		if err != nil {
			slog.Error("failed to open terminal", "error", err)
			return 1
		}
		term, err := terminal.New(screen, cfg)
		if err != nil {
			slog.Error("failed to open terminal", "error", err)
			return 1
		}
		defer term.Close()
		consumers = append(consumers, term)
	case modeHeadless:
	default:
		slog.Error("unknown mode", "mode", *mode)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting simulation",
		"mode", *mode,
		"seed", rngSeed,
		"particles", cfg.Population.Count,
		"index", cfg.Index.Kind,
		"max_ticks", *maxTicks,
		"output_dir", out.Dir(),
	)

	start := time.Now()
	err = sim.Run(ctx, consumers, *maxTicks)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		slog.Info("simulation finished", "tick", sim.Tick(), "elapsed", elapsed)
	case errors.Is(err, context.Canceled):
		slog.Info("simulation interrupted", "tick", sim.Tick(), "elapsed", elapsed)
	default:
		slog.Error("simulation failed", "tick", sim.Tick(), "error", err)
		return 1
	}
	return 0
}
