// Package snapshot models one scanned directory tree: the set of files and
// directories under a root, keyed by slash-normalized relative path.
package snapshot

import (
	"path/filepath"
	"sort"
	"strings"
)

// Kind distinguishes file entries from directory entries.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Entry is one node of a scanned tree.
type Entry struct {
	// RelPath is slash-normalized and relative to the snapshot root. It is
	// the unique key of the entry within its snapshot.
	RelPath string
	Kind    Kind

	// Size is the byte count for files; zero for directories.
	Size int64

	// ContentHash is filled lazily by the change detector. Files that are
	// never compared are never hashed.
	ContentHash string
}

// Snapshot is the result of scanning one root at one instant.
type Snapshot struct {
	Root    string
	Entries map[string]*Entry
}

// New returns an empty snapshot for the given root.
func New(root string) *Snapshot {
	return &Snapshot{
		Root:    root,
		Entries: make(map[string]*Entry),
	}
}

// Abs maps a relative entry path back to a filesystem path under the root.
func (s *Snapshot) Abs(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

// Paths returns every entry path ordered by PathLess, so ancestors always
// come before their descendants. Iteration over a snapshot must go through
// this to stay deterministic.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.Entries))
	for p := range s.Entries {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		return PathLess(paths[i], paths[j])
	})
	return paths
}

// PathLess orders slash-normalized paths segment by segment. Unlike a plain
// string compare it guarantees that a directory sorts before everything
// nested under it ("a" < "a/b" even when a sibling like "a-b" exists).
func PathLess(a, b string) bool {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}
