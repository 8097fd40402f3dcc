package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

var (
	mu       sync.Mutex
	verbose  = false
	out      io.Writer = os.Stderr
	prefixes           = map[int]string{
		levelDebug: color.New(color.FgWhite).Sprint("[DBG]"),
		levelInfo:  color.New(color.FgCyan).Sprint("[INF]"),
		levelWarn:  color.New(color.FgYellow).Sprint("[WRN]"),
		levelError: color.New(color.FgRed).Sprint("[ERR]"),
	}
	plainPrefixes = map[int]string{
		levelDebug: "[DBG]",
		levelInfo:  "[INF]",
		levelWarn:  "[WRN]",
		levelError: "[ERR]",
	}
	colored    = true
	timestamps = false
)

// SetVerbose enables debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether debug output is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects log output. Non-terminal writers get plain prefixes and timestamps.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	out = w
	_, isFile := w.(*os.File)
	colored = w == os.Stderr || w == os.Stdout
	timestamps = isFile && !colored
}

// Discard drops all log output.
func Discard() {
	SetOutput(io.Discard)
}

// OpenFile appends log output to path and returns a closer for it.
func OpenFile(path string) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	SetOutput(f)
	return f, nil
}

func Debugf(format string, args ...any) {
	if IsVerbose() {
		logMessage(levelDebug, format, args...)
	}
}

func Infof(format string, args ...any) {
	logMessage(levelInfo, format, args...)
}

func Warnf(format string, args ...any) {
	logMessage(levelWarn, format, args...)
}

func Errorf(format string, args ...any) {
	logMessage(levelError, format, args...)
}

func logMessage(level int, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	prefix := plainPrefixes[level]
	if colored {
		prefix = prefixes[level]
	}
	line := prefix + " " + fmt.Sprintf(format, args...) + "\n"
	if timestamps {
		line = time.Now().UTC().Format(time.RFC3339) + " " + line
	}
	_, _ = io.WriteString(out, line)
}
