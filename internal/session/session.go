// Package session holds the per-run context: run id, logger, debug
// directory and the registry of visited navigation paths.
package session

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Options configures a new Session.
type Options struct {
	LogDir   string // Directory for run_<id>.log; empty disables file logging
	DebugDir string // Directory for debug artifacts
	Debug    bool   // Write debug artifacts
	Console  io.Writer
}

// Session is created once per navigation run and passed to every
// component that logs or records paths.
type Session struct {
	ID       string
	Started  time.Time
	Debug    bool
	DebugDir string

	logger  *log.Logger
	logFile *os.File
	paths   map[string]struct{}
	order   []string
}

// New creates a Session. The debug directory is namespaced by run id so
// artifacts from separate runs never overwrite each other.
func New(opts Options) (*Session, error) {
	id := uuid.New().String()
	s := &Session{
		ID:      id,
		Started: time.Now(),
		Debug:   opts.Debug,
		paths:   make(map[string]struct{}),
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	out := console

	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		name := fmt.Sprintf("run_%s_%s.log", s.Started.Format("20060102_150405"), id[:8])
		f, err := os.OpenFile(filepath.Join(opts.LogDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		s.logFile = f
		out = io.MultiWriter(console, f)
	}
	s.logger = log.New(out, "", log.LstdFlags|log.Lshortfile)

	if opts.Debug {
		dir := opts.DebugDir
		if dir == "" {
			dir = "debug"
		}
		s.DebugDir = filepath.Join(dir, id[:8])
		if err := os.MkdirAll(s.DebugDir, 0o755); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create debug directory: %w", err)
		}
	}

	return s, nil
}

// Discard returns a Session that logs nowhere. Intended for tests and
// offline tools that only need the perception core.
func Discard() *Session {
	return &Session{
		ID:      "discard",
		Started: time.Now(),
		logger:  log.New(io.Discard, "", 0),
		paths:   make(map[string]struct{}),
	}
}

// Close releases the log file.
func (s *Session) Close() error {
	if s.logFile != nil {
		err := s.logFile.Close()
		s.logFile = nil
		return err
	}
	return nil
}

// Infof logs an informational message.
func (s *Session) Infof(format string, args ...any) {
	s.output("INFO", format, args...)
}

// Warnf logs a warning.
func (s *Session) Warnf(format string, args ...any) {
	s.output("WARN", format, args...)
}

// Errorf logs an error. It does not return one.
func (s *Session) Errorf(format string, args ...any) {
	s.output("ERROR", format, args...)
}

// Debugf logs only when debug output is enabled.
func (s *Session) Debugf(format string, args ...any) {
	if s.Debug {
		s.output("DEBUG", format, args...)
	}
}

func (s *Session) output(level, format string, args ...any) {
	// calldepth 3: output <- Infof <- caller
	_ = s.logger.Output(3, fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...)))
}

// DebugPath returns the path for a named debug artifact, or "" when debug
// output is disabled.
func (s *Session) DebugPath(name string) string {
	if !s.Debug || s.DebugDir == "" {
		return ""
	}
	return filepath.Join(s.DebugDir, name)
}

// RegisterPath records a navigation path (segments joined with " / ").
// It returns false if the same path was already registered in this run.
func (s *Session) RegisterPath(segments ...string) bool {
	var parts []string
	for _, seg := range segments {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	key := strings.Join(parts, " / ")
	if _, seen := s.paths[key]; seen {
		return false
	}
	s.paths[key] = struct{}{}
	s.order = append(s.order, key)
	s.Infof("Path: %s", key)
	return true
}

// Paths returns registered paths in registration order.
func (s *Session) Paths() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
