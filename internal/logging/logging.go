package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Logger is the process-wide logger; it discards everything until Initialize enables it
var Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// Initialize sets up the logger. Without debug or a log file every record is
// discarded. Otherwise records go to logFile, or to a fresh file in the state
// directory keeping at most maxLogFiles files.
func Initialize(debug bool, logFile string, maxLogFiles int) (string, error) {
	if !debug && logFile == "" {
		Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
		return "", nil
	}

	logFilePath := logFile
	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
			return "", fmt.Errorf("failed to create log directory: %w", err)
		}
	} else {
		logDir, err := stateDir()
		if err != nil {
			return "", fmt.Errorf("failed to get log directory: %w", err)
		}
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create log directory: %w", err)
		}
		if maxLogFiles > 0 {
			pruneLogs(logDir, maxLogFiles-1)
		}
		logFilePath = filepath.Join(logDir, uuid.New().String()+".log")
	}

	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}

	Logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Logger.Info("debug logging initialized", "log_file", logFilePath)
	return logFilePath, nil
}

// pruneLogs deletes the least recently written .log files in dir until at
// most keep remain. Files that cannot be removed are reported and skipped.
func pruneLogs(dir string, keep int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: log rotation failed: %v\n", err)
		return
	}

	type logFile struct {
		name    string
		written time.Time
	}
	var files []logFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".log" {
			continue
		}
		if info, err := e.Info(); err == nil {
			files = append(files, logFile{e.Name(), info.ModTime()})
		}
	}
	if len(files) <= keep {
		return
	}

	slices.SortFunc(files, func(a, b logFile) int { return a.written.Compare(b.written) })
	for _, f := range files[:len(files)-keep] {
		if err := os.Remove(filepath.Join(dir, f.name)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to delete old log file %s: %v\n", f.name, err)
		}
	}
}

// stateDir is $XDG_STATE_HOME/taigit, defaulting to ~/.local/state/taigit
func stateDir() (string, error) {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "taigit"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "taigit"), nil
}
