package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/skriva/dirsyncd/internal/sink"
)

// Executor applies a plan to the real filesystem, emitting one event per
// action. A failing action is reported and skipped; execution continues so
// one locked or denied entry does not block the rest of the plan.
type Executor struct {
	sink sink.Sink
}

// NewExecutor creates an executor reporting to the given sink.
func NewExecutor(s sink.Sink) *Executor {
	return &Executor{sink: s}
}

// Execute applies the actions strictly in plan order and returns the number
// of applied and failed actions. Cancellation is checked between actions;
// an in-flight copy is finished, never preempted.
func (e *Executor) Execute(ctx context.Context, plan Plan, srcRoot, repRoot string) (applied, failed int) {
	if err := os.MkdirAll(repRoot, 0755); err != nil {
		e.sink.Emit(sink.NewEvent(sink.ActionError, "", fmt.Sprintf("failed to create replica root: %v", err)))
		return 0, len(plan)
	}

	for _, a := range plan {
		if ctx.Err() != nil {
			return applied, failed
		}
		if err := e.apply(a, srcRoot, repRoot); err != nil {
			failed++
			e.sink.Emit(sink.NewEvent(sink.ActionError, a.Path, fmt.Sprintf("%s: %v", a.Kind, err)))
			continue
		}
		applied++
		e.sink.Emit(sink.NewEvent(eventKind(a.Kind), a.Path, ""))
	}
	return applied, failed
}

func (e *Executor) apply(a Action, srcRoot, repRoot string) error {
	dst := filepath.Join(repRoot, filepath.FromSlash(a.Path))

	switch a.Kind {
	case CreateDir:
		return os.MkdirAll(dst, 0755)
	case CreateFile, UpdateFile:
		return copyFile(filepath.Join(srcRoot, filepath.FromSlash(a.Path)), dst)
	case DeleteFile:
		return os.Remove(dst)
	case DeleteDir:
		// The plan deletes children first, so the directory is empty here
		// unless one of those deletions failed.
		return os.Remove(dst)
	default:
		return fmt.Errorf("unknown action kind %d", a.Kind)
	}
}

// copyFile copies src to dst through a temp file in the destination
// directory followed by a rename, so an interrupted copy never leaves a
// half-written replica file. The rename is atomic on POSIX filesystems but
// not guaranteed to be on every platform.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	tmpFile, err := os.CreateTemp(filepath.Dir(dst), ".dirsyncd-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}() // cleanup on error

	if _, err := io.Copy(tmpFile, srcFile); err != nil {
		_ = tmpFile.Close()
		return err
	}

	srcInfo, err := srcFile.Stat()
	if err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(srcInfo.Mode()); err != nil {
		_ = tmpFile.Close()
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, dst)
}

func eventKind(k ActionKind) sink.Kind {
	switch k {
	case CreateDir:
		return sink.CreatedDir
	case CreateFile:
		return sink.CreatedFile
	case UpdateFile:
		return sink.UpdatedFile
	case DeleteFile:
		return sink.DeletedFile
	default:
		return sink.DeletedDir
	}
}
