package bookkeeper

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// LogLevel orders log lines by severity; a logger prints its own level and
// everything above it.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG"}

func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel maps a level name, in any case, to its LogLevel. Unknown
// names fall back to LevelWarn.
func ParseLogLevel(s string) LogLevel {
	name := strings.ToUpper(s)
	if name == "WARNING" {
		return LevelWarn
	}
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i)
		}
	}
	return LevelWarn
}

// Logger receives the engine's trace. Debug lines follow every record the
// bookkeeper creates; warnings mirror the diagnostics of Warn.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)

	// With returns a logger that appends fields to every line.
	With(fields map[string]any) Logger
}

// textLogger writes "[LEVEL] time message k=v ..." lines. Fields are
// rendered once, when With is called.
type textLogger struct {
	out    io.Writer
	level  LogLevel
	fields map[string]any
	suffix string
	mu     *sync.Mutex
}

// NewLogger returns a text logger printing level and above to w, or to
// stderr when w is nil.
func NewLogger(level LogLevel, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &textLogger{out: w, level: level, mu: &sync.Mutex{}}
}

func (l *textLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)

	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(merged)) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fieldValue(merged[k]))
	}
	return &textLogger{out: l.out, level: l.level, fields: merged, suffix: b.String(), mu: l.mu}
}

func fieldValue(v any) string {
	s := fmt.Sprint(v)
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' }) {
		return strconv.Quote(s)
	}
	return s
}

func (l *textLogger) Debugf(format string, args ...any) { l.write(LevelDebug, format, args) }
func (l *textLogger) Warnf(format string, args ...any)  { l.write(LevelWarn, format, args) }

func (l *textLogger) write(level LogLevel, format string, args []any) {
	if level > l.level {
		return
	}
	line := fmt.Sprintf("[%s] %s %s%s\n", level, time.Now().UTC().Format(time.RFC3339Nano), fmt.Sprintf(format, args...), l.suffix)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Warnf(string, ...any)         {}
func (l nopLogger) With(map[string]any) Logger { return l }

// NopLogger discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

// warningPrinter echoes diagnostic warnings, in red when the output is a
// terminal.
type warningPrinter struct {
	out   io.Writer
	color bool
	mu    sync.Mutex
}

func newWarningPrinter(w io.Writer, mode string) *warningPrinter {
	color := false
	switch mode {
	case "always":
		color = true
	case "auto", "":
		if f, ok := w.(*os.File); ok {
			color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	return &warningPrinter{out: w, color: color}
}

func (p *warningPrinter) print(where, msg string) {
	line := fmt.Sprintf("*** WARNING: [%s] %s", where, msg)
	if p.color {
		line = "\x1b[31m" + line + "\x1b[0m"
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}
