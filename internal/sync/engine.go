package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/skriva/dirsyncd/internal/sink"
	"github.com/skriva/dirsyncd/internal/snapshot"
)

// Engine runs one full scan→plan→execute pass per call. It holds no state
// between cycles beyond its configuration: snapshots and plans are built
// fresh each time and discarded afterwards.
type Engine struct {
	source  string
	replica string

	scanner  *snapshot.Scanner
	planner  *Planner
	executor *Executor
	sink     sink.Sink
}

// NewEngine creates an engine mirroring source into replica, reporting
// every event to the given sink.
func NewEngine(source, replica string, s sink.Sink) *Engine {
	return &Engine{
		source:   source,
		replica:  replica,
		scanner:  snapshot.NewScanner(s),
		planner:  NewPlanner(),
		executor: NewExecutor(s),
		sink:     s,
	}
}

// CheckSource verifies that the source root exists and is a readable
// directory. A failure here is fatal: the scheduler refuses to start.
func (e *Engine) CheckSource() error {
	info, err := os.Stat(e.source)
	if err != nil {
		return fmt.Errorf("source root %q: %w", e.source, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source root %q is not a directory", e.source)
	}
	return nil
}

// RunCycle performs one synchronization cycle. A missing replica root is
// the degenerate empty snapshot; a missing source root is an error. The
// cycle-end event carries the applied/failed action counts.
func (e *Engine) RunCycle(ctx context.Context) error {
	e.sink.Emit(sink.NewEvent(sink.CycleStart, "", fmt.Sprintf("%s -> %s", e.source, e.replica)))

	src, rep, err := e.scanBoth()
	if err != nil {
		return err
	}

	plan := e.planner.Plan(src, rep)
	applied, failed := e.executor.Execute(ctx, plan, e.source, e.replica)

	e.sink.Emit(sink.NewEvent(sink.CycleEnd, "",
		fmt.Sprintf("planned=%d applied=%d failed=%d", len(plan), applied, failed)))
	return nil
}

// scanBoth snapshots the source and replica roots concurrently. The two
// scans have no ordering dependency on each other.
func (e *Engine) scanBoth() (src, rep *snapshot.Snapshot, err error) {
	var g errgroup.Group

	g.Go(func() error {
		s, err := e.scanner.Scan(e.source)
		if err != nil {
			return fmt.Errorf("failed to scan source: %w", err)
		}
		src = s
		return nil
	})

	g.Go(func() error {
		r, err := e.scanner.Scan(e.replica)
		if errors.Is(err, fs.ErrNotExist) {
			rep = snapshot.New(e.replica)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to scan replica: %w", err)
		}
		rep = r
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return src, rep, nil
}
