package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
)

// SessionLog is a pterm logger backed by a per-session file.
type SessionLog struct {
	*pterm.Logger
	ID   string
	Path string
	file *os.File

	closeOnce sync.Once
	closeErr  error
}

// Close closes the log file. Later calls return the first result.
func (s *SessionLog) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closeErr = s.file.Close()
	})
	return s.closeErr
}

// LogLevel maps a --log-level value to a pterm level. Unknown values mean info.
func LogLevel(level string) pterm.LogLevel {
	switch level {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "info":
		return pterm.LogLevelInfo
	case "warn":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "fatal":
		return pterm.LogLevelFatal
	case "print":
		return pterm.LogLevelPrint
	case "disabled", "off":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}

// NewSessionLog opens <dir>/<session id>.log, where dir defaults to
// <user cache dir>/pbpup/logs. The terminal belongs to the prompts, so log
// lines never go there. If the file cannot be opened the returned log
// discards everything and the error says why.
func NewSessionLog(dir string, level pterm.LogLevel) (*SessionLog, error) {
	id := uuid.New().String()
	discard := &SessionLog{Logger: pterm.DefaultLogger.WithWriter(io.Discard).WithLevel(level), ID: id}

	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return discard, fmt.Errorf("failed to get cache directory: %w", err)
		}
		dir = filepath.Join(cache, "pbpup", "logs")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return discard, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, id+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return discard, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := pterm.DefaultLogger.
		WithWriter(f).
		WithLevel(level).
		WithFormatter(pterm.LogFormatterJSON)
	return &SessionLog{Logger: logger, ID: id, Path: path, file: f}, nil
}
