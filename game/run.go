package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/telemetry"
)

// ErrStop is returned by a frame consumer to end the run cleanly,
// e.g. when its window was closed.
var ErrStop = errors.New("game: stop requested")

// FrameConsumer receives one frame per tick boundary. It must not retain
// the frame's slices past the call.
type FrameConsumer interface {
	Consume(f components.Frame) error
}

// ConsumerFunc adapts a function to FrameConsumer.
type ConsumerFunc func(f components.Frame) error

// Consume calls fn(f).
func (fn ConsumerFunc) Consume(f components.Frame) error {
	return fn(f)
}

// MultiConsumer fans a frame out to every consumer in order, stopping at
// the first error.
type MultiConsumer []FrameConsumer

// Consume implements FrameConsumer.
func (m MultiConsumer) Consume(f components.Frame) error {
	for _, c := range m {
		if err := c.Consume(f); err != nil {
			return err
		}
	}
	return nil
}

// Run alternates frames and ticks until the consumer stops, maxTicks ticks
// have completed (0 = unlimited) or ctx is cancelled. The consumer sees the
// initial state and the state after every tick.
//
// ErrStop from the consumer ends the run with a nil error. Any other
// consumer error is returned wrapped with the tick it occurred at.
// Cancellation returns ctx.Err().
func (s *Simulation) Run(ctx context.Context, consumer FrameConsumer, maxTicks int64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.perf.StartTick()

		if consumer != nil {
			s.perf.StartPhase(telemetry.PhaseFrame)
			if err := consumer.Consume(s.Frame()); err != nil {
				s.perf.EndTick()
				if errors.Is(err, ErrStop) {
					return nil
				}
				return fmt.Errorf("frame consumer at tick %d: %w", s.tick, err)
			}
		}

		if maxTicks > 0 && s.tick >= maxTicks {
			s.perf.EndTick()
			return nil
		}

		s.step()
		s.perf.EndTick()
	}
}
