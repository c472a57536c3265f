// Package logger provides a dual-output structured logger that writes to both
// stderr and a timestamped log file inside the install root.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Logger writes to both stderr and a log file simultaneously.
// Every line carries the run id of the command that produced it.
// The file sink is buffered in memory until Persist is called, so a command
// that fails validation leaves nothing on disk.
type Logger struct {
	*log.Logger
	file *os.File
	sink *fileSink
}

// LogsDir returns <installRoot>/.metadata/logs.
func LogsDir(installRoot string) string {
	return filepath.Join(installRoot, ".metadata", "logs")
}

// New creates a logger that writes to stderr and, once persisted, to
// <installRoot>/.metadata/logs/<op>-<ts>.log.
func New(installRoot, op string, level log.Level) *Logger {
	ts := time.Now().Format("20060102-150405")
	sink := &fileSink{path: filepath.Join(LogsDir(installRoot), fmt.Sprintf("%s-%s.log", op, ts))}
	return &Logger{
		Logger: newBase(io.MultiWriter(os.Stderr, sink), level),
		sink:   sink,
	}
}

// Persist creates the log file and flushes everything logged so far into
// it. Later lines go straight to the file. It is a no-op for loggers
// without a file sink and after the first successful call.
func (l *Logger) Persist() error {
	if l.sink == nil {
		return nil
	}
	f, err := l.sink.open()
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// fileSink holds lines in memory until open is called.
type fileSink struct {
	mu   sync.Mutex
	path string
	buf  bytes.Buffer
	file *os.File
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return s.file.Write(p)
	}
	return s.buf.Write(p)
}

func (s *fileSink) open() (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return s.file, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	if _, err := s.buf.WriteTo(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("write log file: %w", err)
	}
	s.file = f
	return f, nil
}

// NewStderr returns a logger without a file sink, used before the install
// root is known or when it cannot be created.
func NewStderr(level log.Level) *Logger {
	return &Logger{Logger: newBase(os.Stderr, level)}
}

// NewDiscard returns a logger that throws away all output.
func NewDiscard() *Logger {
	return &Logger{Logger: newBase(io.Discard, log.DebugLevel)}
}

func newBase(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		Prefix:          "devpkg",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
	return l.With("run", uuid.NewString()[:8])
}

// LogPath returns the path of the current log file, or empty string if
// nothing has been persisted.
func (l *Logger) LogPath() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Printf writes a formatted informational line to the log.
func (l *Logger) Printf(format string, args ...any) {
	l.Infof(format, args...)
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// LatestLogPath returns the path to the most recent log in <installRoot>.
// Returns "" if no logs exist.
func LatestLogPath(installRoot string) string {
	entries, err := os.ReadDir(LogsDir(installRoot))
	if err != nil || len(entries) == 0 {
		return ""
	}
	// Names are <op>-<ts>.log, so compare on the timestamp part.
	latest, latestTS := "", ""
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ts := timestampOf(e.Name())
		if ts >= latestTS {
			latest, latestTS = filepath.Join(LogsDir(installRoot), e.Name()), ts
		}
	}
	return latest
}

func timestampOf(name string) string {
	// <op>-YYYYMMDD-HHMMSS.log
	const tsLen = len("20060102-150405.log")
	if len(name) < tsLen {
		return name
	}
	return name[len(name)-tsLen:]
}
