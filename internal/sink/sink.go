// Package sink carries structured synchronization events from the engine to
// whatever renders them. The engine never opens log files itself; it only
// emits events into a Sink.
package sink

import (
	"log/slog"
	"time"
)

// Kind identifies the type of a synchronization event.
type Kind string

const (
	CycleStart  Kind = "cycle-start"
	CycleEnd    Kind = "cycle-end"
	CreatedFile Kind = "created-file"
	CreatedDir  Kind = "created-dir"
	UpdatedFile Kind = "updated-file"
	DeletedFile Kind = "deleted-file"
	DeletedDir  Kind = "deleted-dir"
	ScanWarning Kind = "scan-warning"
	ActionError Kind = "action-error"
	Terminated  Kind = "terminated"
)

// Event is one structured synchronization event.
type Event struct {
	Time   time.Time
	Kind   Kind
	Path   string
	Detail string
}

// NewEvent stamps an event with the current time.
func NewEvent(kind Kind, path, detail string) Event {
	return Event{
		Time:   time.Now(),
		Kind:   kind,
		Path:   path,
		Detail: detail,
	}
}

// Sink accepts synchronization events. Implementations must be safe for
// concurrent Emit calls: the source and replica scans run in parallel and
// both report warnings.
type Sink interface {
	Emit(Event)
}

// Func adapts a plain function to the Sink interface.
type Func func(Event)

func (f Func) Emit(e Event) { f(e) }

// Discard drops every event. Useful for tests that only care about results.
var Discard Sink = Func(func(Event) {})

// Logger renders events through slog. slog handlers serialize their writes,
// which satisfies the concurrency requirement on sinks.
type Logger struct {
	log *slog.Logger
}

// NewLogger returns a sink rendering events via the given logger.
func NewLogger(l *slog.Logger) *Logger {
	return &Logger{log: l}
}

// Emit logs one event. Warnings and action errors map to the corresponding
// log levels; everything else is informational. Logging failures are not
// propagated into the synchronization logic.
func (s *Logger) Emit(e Event) {
	attrs := make([]any, 0, 4)
	if e.Path != "" {
		attrs = append(attrs, "path", e.Path)
	}
	if e.Detail != "" {
		attrs = append(attrs, "detail", e.Detail)
	}

	switch e.Kind {
	case ScanWarning:
		s.log.Warn(string(e.Kind), attrs...)
	case ActionError:
		s.log.Error(string(e.Kind), attrs...)
	default:
		s.log.Info(string(e.Kind), attrs...)
	}
}
