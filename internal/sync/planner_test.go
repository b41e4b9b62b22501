package sync

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/skriva/dirsyncd/internal/sink"
	"github.com/skriva/dirsyncd/internal/snapshot"
)

// memorySink records events; safe for concurrent emits from parallel scans.
type memorySink struct {
	mu     sync.Mutex
	events []sink.Event
}

func (m *memorySink) Emit(e sink.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *memorySink) byKind(k sink.Kind) []sink.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sink.Event
	for _, e := range m.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

func writeTree(t *testing.T, root string, files map[string]string, dirs []string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0755); err != nil {
			t.Fatal(err)
		}
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func scanPair(t *testing.T, srcRoot, repRoot string) (*snapshot.Snapshot, *snapshot.Snapshot) {
	t.Helper()
	sc := snapshot.NewScanner(sink.Discard)
	src, err := sc.Scan(srcRoot)
	if err != nil {
		t.Fatalf("scan source: %v", err)
	}
	rep, err := sc.Scan(repRoot)
	if err != nil {
		t.Fatalf("scan replica: %v", err)
	}
	return src, rep
}

func indexOf(plan Plan, kind ActionKind, path string) int {
	for i, a := range plan {
		if a.Kind == kind && a.Path == path {
			return i
		}
	}
	return -1
}

func TestPlan_Scenario(t *testing.T) {
	srcRoot := t.TempDir()
	repRoot := t.TempDir()
	writeTree(t, srcRoot, map[string]string{"a.txt": "hello"}, []string{"dir"})
	writeTree(t, repRoot, map[string]string{"a.txt": "world", "old.txt": "x"}, nil)

	plan := NewPlanner().Plan(scanPair(t, srcRoot, repRoot))

	if len(plan) != 3 {
		t.Fatalf("plan has %d actions, want 3: %v", len(plan), plan)
	}
	for _, want := range []Action{
		{Kind: UpdateFile, Path: "a.txt"},
		{Kind: CreateDir, Path: "dir"},
		{Kind: DeleteFile, Path: "old.txt"},
	} {
		if indexOf(plan, want.Kind, want.Path) < 0 {
			t.Errorf("plan is missing %v: %v", want, plan)
		}
	}
}

func TestPlan_Empty_WhenTreesEqual(t *testing.T) {
	srcRoot := t.TempDir()
	repRoot := t.TempDir()
	tree := map[string]string{"a.txt": "same", "d/e.txt": "nested"}
	writeTree(t, srcRoot, tree, []string{"empty"})
	writeTree(t, repRoot, tree, []string{"empty"})

	plan := NewPlanner().Plan(scanPair(t, srcRoot, repRoot))
	if len(plan) != 0 {
		t.Errorf("expected empty plan for identical trees, got %v", plan)
	}
}

func TestPlan_CreationOrdering(t *testing.T) {
	srcRoot := t.TempDir()
	repRoot := t.TempDir()
	writeTree(t, srcRoot, map[string]string{"a/b.txt": "x", "a/c/d.txt": "y"}, nil)

	plan := NewPlanner().Plan(scanPair(t, srcRoot, repRoot))

	dirIdx := indexOf(plan, CreateDir, "a")
	fileIdx := indexOf(plan, CreateFile, "a/b.txt")
	subIdx := indexOf(plan, CreateDir, "a/c")
	deepIdx := indexOf(plan, CreateFile, "a/c/d.txt")
	if dirIdx < 0 || fileIdx < 0 || subIdx < 0 || deepIdx < 0 {
		t.Fatalf("plan is missing creations: %v", plan)
	}
	if dirIdx > fileIdx {
		t.Errorf("CreateDir(a) must precede CreateFile(a/b.txt): %v", plan)
	}
	if dirIdx > subIdx || subIdx > deepIdx {
		t.Errorf("directories must be created ancestors-first: %v", plan)
	}
}

func TestPlan_DeletionOrdering(t *testing.T) {
	srcRoot := t.TempDir()
	repRoot := t.TempDir()
	writeTree(t, repRoot, map[string]string{"x/y.txt": "gone", "x/z/w.txt": "deep"}, nil)

	plan := NewPlanner().Plan(scanPair(t, srcRoot, repRoot))

	fileIdx := indexOf(plan, DeleteFile, "x/y.txt")
	deepIdx := indexOf(plan, DeleteFile, "x/z/w.txt")
	subIdx := indexOf(plan, DeleteDir, "x/z")
	dirIdx := indexOf(plan, DeleteDir, "x")
	if fileIdx < 0 || deepIdx < 0 || subIdx < 0 || dirIdx < 0 {
		t.Fatalf("plan is missing deletions: %v", plan)
	}
	if fileIdx > dirIdx || subIdx > dirIdx {
		t.Errorf("children must be deleted before DeleteDir(x): %v", plan)
	}
	if deepIdx > subIdx {
		t.Errorf("DeleteFile(x/z/w.txt) must precede DeleteDir(x/z): %v", plan)
	}
}

func TestPlan_KindMismatch_FileBecomesDir(t *testing.T) {
	srcRoot := t.TempDir()
	repRoot := t.TempDir()
	writeTree(t, srcRoot, map[string]string{"p/inner.txt": "new"}, nil)
	writeTree(t, repRoot, map[string]string{"p": "was a file"}, nil)

	plan := NewPlanner().Plan(scanPair(t, srcRoot, repRoot))

	delIdx := indexOf(plan, DeleteFile, "p")
	createIdx := indexOf(plan, CreateDir, "p")
	innerIdx := indexOf(plan, CreateFile, "p/inner.txt")
	if delIdx < 0 || createIdx < 0 || innerIdx < 0 {
		t.Fatalf("plan is missing delete-then-create actions: %v", plan)
	}
	if delIdx > createIdx {
		t.Errorf("DeleteFile(p) must precede CreateDir(p): %v", plan)
	}
	if createIdx > innerIdx {
		t.Errorf("CreateDir(p) must precede CreateFile(p/inner.txt): %v", plan)
	}
}

func TestPlan_KindMismatch_DirBecomesFile(t *testing.T) {
	srcRoot := t.TempDir()
	repRoot := t.TempDir()
	writeTree(t, srcRoot, map[string]string{"p": "now a file"}, nil)
	writeTree(t, repRoot, map[string]string{"p/stale.txt": "old"}, nil)

	plan := NewPlanner().Plan(scanPair(t, srcRoot, repRoot))

	staleIdx := indexOf(plan, DeleteFile, "p/stale.txt")
	delIdx := indexOf(plan, DeleteDir, "p")
	createIdx := indexOf(plan, CreateFile, "p")
	if staleIdx < 0 || delIdx < 0 || createIdx < 0 {
		t.Fatalf("plan is missing delete-then-create actions: %v", plan)
	}
	if staleIdx > delIdx {
		t.Errorf("children must be deleted before DeleteDir(p): %v", plan)
	}
	if delIdx > createIdx {
		t.Errorf("DeleteDir(p) must precede CreateFile(p): %v", plan)
	}
}

func TestPlan_ChangeWithIdenticalMetadata(t *testing.T) {
	srcRoot := t.TempDir()
	repRoot := t.TempDir()
	writeTree(t, srcRoot, map[string]string{"f.txt": "hello"}, nil)
	writeTree(t, repRoot, map[string]string{"f.txt": "world"}, nil)

	// Same size and same modification time; only the bytes differ.
	stamp := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, root := range []string{srcRoot, repRoot} {
		if err := os.Chtimes(filepath.Join(root, "f.txt"), stamp, stamp); err != nil {
			t.Fatal(err)
		}
	}

	plan := NewPlanner().Plan(scanPair(t, srcRoot, repRoot))
	if indexOf(plan, UpdateFile, "f.txt") < 0 {
		t.Errorf("content change behind identical metadata must plan an update: %v", plan)
	}
}

func TestPlan_DeletionPerReplicaOnlyPath(t *testing.T) {
	srcRoot := t.TempDir()
	repRoot := t.TempDir()
	writeTree(t, repRoot, map[string]string{"only.txt": "x"}, []string{"lonely"})

	plan := NewPlanner().Plan(scanPair(t, srcRoot, repRoot))

	if len(plan) != 2 {
		t.Fatalf("expected exactly one delete per replica-only path, got %v", plan)
	}
	if indexOf(plan, DeleteFile, "only.txt") < 0 || indexOf(plan, DeleteDir, "lonely") < 0 {
		t.Errorf("unexpected plan: %v", plan)
	}
}
