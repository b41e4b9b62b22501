package sink

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

// chdir runs the test from a scratch directory because the generated log
// path is relative to the working directory.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return dir
}

func TestResolveLogPath_Generated(t *testing.T) {
	dir := chdir(t)

	got, err := ResolveLogPath("")
	if err != nil {
		t.Fatalf("ResolveLogPath: %v", err)
	}

	pattern := regexp.MustCompile(`^logs` + regexp.QuoteMeta(string(filepath.Separator)) + `sync_log-\d{6}_\d{6}\.log$`)
	if !pattern.MatchString(got) {
		t.Errorf("generated path %q does not match sync_log-YYMMDD_hhmmss.log", got)
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultLogDir)); err != nil {
		t.Errorf("logs directory should be created: %v", err)
	}
}

func TestResolveLogPath_Explicit(t *testing.T) {
	base := t.TempDir()
	want := filepath.Join(base, "deep", "custom.log")

	got, err := ResolveLogPath(want)
	if err != nil {
		t.Fatalf("ResolveLogPath: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(base, "deep")); err != nil {
		t.Errorf("parent directory should be created: %v", err)
	}
}

func TestResolveLogPath_Last(t *testing.T) {
	chdir(t)

	if err := os.MkdirAll(DefaultLogDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"sync_log-240101_000000.log",
		"sync_log-250615_120000.log",
		"sync_log-230505_090000.log",
		"unrelated.txt",
	} {
		if err := os.WriteFile(filepath.Join(DefaultLogDir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ResolveLogPath(LastToken)
	if err != nil {
		t.Fatalf("ResolveLogPath: %v", err)
	}
	want := filepath.Join(DefaultLogDir, "sync_log-250615_120000.log")
	if got != want {
		t.Errorf("got %q, want newest %q", got, want)
	}
}

func TestResolveLogPath_LastWithoutLogs(t *testing.T) {
	chdir(t)

	got, err := ResolveLogPath(LastToken)
	if err != nil {
		t.Fatalf("ResolveLogPath: %v", err)
	}
	// No previous log files: fall back to a fresh generated name.
	if filepath.Dir(got) != DefaultLogDir {
		t.Errorf("fallback path %q should live under %s", got, DefaultLogDir)
	}
}

func TestOpenLogFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.log")
	if err := os.WriteFile(path, []byte("first\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("log file content = %q, want appended output", data)
	}
}
