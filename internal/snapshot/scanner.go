package snapshot

import (
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/skriva/dirsyncd/internal/sink"
)

// Scanner walks a root directory and produces a Snapshot of its contents.
// Individual unreadable entries are reported as scan warnings and excluded;
// only a missing or unreadable root fails the scan.
type Scanner struct {
	sink sink.Sink
}

// NewScanner creates a scanner reporting warnings to the given sink.
func NewScanner(s sink.Sink) *Scanner {
	return &Scanner{sink: s}
}

// Scan enumerates every entry under root. Traversal is iterative with an
// explicit directory stack, so depth is bounded by available memory rather
// than the call stack. Directory children come back from os.ReadDir sorted
// by name, which keeps snapshots reproducible.
//
// Symbolic links are skipped with a warning rather than followed. Following
// them could loop on cyclic links; skipping keeps the scan total.
func (sc *Scanner) Scan(root string) (*Snapshot, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", root)
	}

	snap := New(root)
	stack := []string{""}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := os.ReadDir(snap.Abs(dir))
		if err != nil {
			if dir == "" {
				return nil, fmt.Errorf("failed to read root %q: %w", root, err)
			}
			sc.warn(dir, fmt.Sprintf("unreadable directory excluded: %v", err))
			delete(snap.Entries, dir)
			continue
		}

		for _, child := range children {
			rel := path.Join(dir, child.Name())

			if child.Type()&fs.ModeSymlink != 0 {
				sc.warn(rel, "symbolic link skipped")
				continue
			}

			if child.IsDir() {
				snap.Entries[rel] = &Entry{RelPath: rel, Kind: KindDir}
				stack = append(stack, rel)
				continue
			}

			if !child.Type().IsRegular() {
				sc.warn(rel, "non-regular file skipped")
				continue
			}

			fi, err := child.Info()
			if err != nil {
				sc.warn(rel, fmt.Sprintf("unreadable entry excluded: %v", err))
				continue
			}
			snap.Entries[rel] = &Entry{RelPath: rel, Kind: KindFile, Size: fi.Size()}
		}
	}

	return snap, nil
}

func (sc *Scanner) warn(rel, detail string) {
	sc.sink.Emit(sink.NewEvent(sink.ScanWarning, rel, detail))
}
