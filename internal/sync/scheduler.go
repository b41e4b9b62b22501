package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/skriva/dirsyncd/internal/sink"
)

// Scheduler repeats synchronization cycles at a fixed interval until the
// context is cancelled. Cycles run strictly sequentially; the inter-cycle
// wait is the only long suspension and is itself cancellable, so shutdown
// never waits out a full interval.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	sink     sink.Sink
}

// NewScheduler wraps an engine in a periodic loop.
func NewScheduler(e *Engine, interval time.Duration, s sink.Sink) *Scheduler {
	return &Scheduler{
		engine:   e,
		interval: interval,
		sink:     s,
	}
}

// RunOnce validates the source root and performs exactly one cycle.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := s.engine.CheckSource(); err != nil {
		return err
	}
	return s.engine.RunCycle(ctx)
}

// Run validates the source root and then cycles until ctx is cancelled.
// Cycle failures after startup are reported and do not stop the loop; the
// service favors forward progress over abort-on-error. On cancellation a
// terminated event is emitted and Run returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.engine.CheckSource(); err != nil {
		return err
	}

	for {
		if err := s.engine.RunCycle(ctx); err != nil {
			s.sink.Emit(sink.NewEvent(sink.ActionError, "", fmt.Sprintf("cycle failed: %v", err)))
		}

		if ctx.Err() != nil {
			s.terminate()
			return nil
		}

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.terminate()
			return nil
		case <-timer.C:
		}
	}
}

func (s *Scheduler) terminate() {
	s.sink.Emit(sink.NewEvent(sink.Terminated, "", "synchronization stopped"))
}
