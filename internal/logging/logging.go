package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

func InitLogging() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

const timestampLayout = "2006-01-02 15:04:05.000000"

// FileLogger appends timestamped lines to a log file. The file is opened
// for every line so it can be rotated or inspected while in use. Write
// failures are reported on Stderr and otherwise ignored.
type FileLogger struct {
	Path   string
	Stderr io.Writer

	mu  sync.Mutex
	now func() time.Time
}

func NewFileLogger(path string) *FileLogger {
	return &FileLogger{Path: path, Stderr: os.Stderr, now: time.Now}
}

func (l *FileLogger) Printf(format string, args ...any) {
	if l == nil || l.Path == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s] %s\n", l.timestamp(), fmt.Sprintf(format, args...))
	if err := l.append(line); err != nil {
		fmt.Fprintf(l.Stderr, "[ERROR] Failed to write to log file: %v\n", err)
	}
}

func (l *FileLogger) append(line string) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (l *FileLogger) timestamp() string {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	return now().Format(timestampLayout)
}
