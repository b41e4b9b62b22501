package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultLogDir holds auto-generated log files.
	DefaultLogDir = "logs"

	// LastToken is the literal --logfile value that means "append to the
	// most recently created log file in the logs directory".
	LastToken = "LAST"

	logFilePrefix = "sync_log-"
	logFileExt    = ".log"
)

// ResolveLogPath maps the --logfile flag value to a concrete file path.
// An empty value yields a fresh timestamped file under the logs directory,
// LastToken reuses the newest existing one, and anything else is taken as
// an explicit path. The parent directory is created if missing.
func ResolveLogPath(value string) (string, error) {
	switch value {
	case "":
		return generateLogPath()
	case LastToken:
		return lastLogPath()
	default:
		if dir := filepath.Dir(value); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		return value, nil
	}
}

// OpenLogFile opens the log file for appending, creating it if needed.
func OpenLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// generateLogPath returns a fresh timestamped path like
// logs/sync_log-YYMMDD_hhmmss.log, creating the logs directory if needed.
func generateLogPath() (string, error) {
	if err := os.MkdirAll(DefaultLogDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	name := logFilePrefix + time.Now().Format("060102_150405") + logFileExt
	return filepath.Join(DefaultLogDir, name), nil
}

// lastLogPath returns the most recent generated log file, falling back to a
// fresh one when the logs directory is empty or missing. The timestamp in
// the file name sorts lexicographically, so the newest name sorts last.
func lastLogPath() (string, error) {
	entries, err := os.ReadDir(DefaultLogDir)
	if err != nil {
		if os.IsNotExist(err) {
			return generateLogPath()
		}
		return "", fmt.Errorf("failed to read log directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, logFilePrefix) && strings.HasSuffix(name, logFileExt) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return generateLogPath()
	}

	sort.Strings(names)
	return filepath.Join(DefaultLogDir, names[len(names)-1]), nil
}
