package sync

import (
	"sort"

	"github.com/skriva/dirsyncd/internal/snapshot"
)

// Planner compares a source snapshot against a replica snapshot and
// produces the ordered action list that transforms the replica into the
// source.
type Planner struct {
	detector *Detector
}

// NewPlanner creates a planner with a fresh change detector.
func NewPlanner() *Planner {
	return &Planner{detector: &Detector{}}
}

// Plan walks the union of paths in both snapshots in sorted order and
// derives one action per difference. The result lists all deletions first,
// deepest path first, then all creations and updates, shallowest path
// first. That single arrangement satisfies every ordering constraint:
// children are deleted before their parent directory, directories are
// created before anything inside them, and a delete at a path precedes a
// create at the same path when the entry kinds disagree.
func (p *Planner) Plan(source, replica *snapshot.Snapshot) Plan {
	var creates, deletes Plan

	for _, rel := range unionPaths(source, replica) {
		srcEntry, inSrc := source.Entries[rel]
		repEntry, inRep := replica.Entries[rel]

		switch {
		case inSrc && !inRep:
			creates = append(creates, Action{Kind: createKind(srcEntry.Kind), Path: rel})

		case !inSrc && inRep:
			deletes = append(deletes, Action{Kind: deleteKind(repEntry.Kind), Path: rel})

		case srcEntry.Kind != repEntry.Kind:
			// A file on one side and a directory on the other. The only
			// policy consistent with an exact mirror is delete-then-create.
			deletes = append(deletes, Action{Kind: deleteKind(repEntry.Kind), Path: rel})
			creates = append(creates, Action{Kind: createKind(srcEntry.Kind), Path: rel})

		case srcEntry.Kind == snapshot.KindFile:
			if p.detector.Changed(source, replica, srcEntry, repEntry) {
				creates = append(creates, Action{Kind: UpdateFile, Path: rel})
			}
		}
		// Directories present on both sides need no action.
	}

	// deletes were collected ancestors-first; reversing makes them
	// deepest-first.
	for i, j := 0, len(deletes)-1; i < j; i, j = i+1, j-1 {
		deletes[i], deletes[j] = deletes[j], deletes[i]
	}

	return append(deletes, creates...)
}

func unionPaths(source, replica *snapshot.Snapshot) []string {
	seen := make(map[string]bool, len(source.Entries)+len(replica.Entries))
	paths := make([]string, 0, len(source.Entries)+len(replica.Entries))
	for rel := range source.Entries {
		seen[rel] = true
		paths = append(paths, rel)
	}
	for rel := range replica.Entries {
		if !seen[rel] {
			paths = append(paths, rel)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return snapshot.PathLess(paths[i], paths[j])
	})
	return paths
}

func createKind(k snapshot.Kind) ActionKind {
	if k == snapshot.KindDir {
		return CreateDir
	}
	return CreateFile
}

func deleteKind(k snapshot.Kind) ActionKind {
	if k == snapshot.KindDir {
		return DeleteDir
	}
	return DeleteFile
}
