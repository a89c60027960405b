// Package log provides structured logging for modhost.
// Entries carry a level, a category and key=value fields, written as text
// or JSON lines. Logging is enabled via the --debug flag or MODHOST_DEBUG env.
package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a Level, defaulting to LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Category groups related log messages.
type Category string

const (
	CatConfig   Category = "config"   // Configuration loading/saving
	CatRegistry Category = "registry" // Module discovery, ordering and lookup
	CatModule   Category = "module"   // Module lifecycle (register/boot/enable/disable)
	CatCache    Category = "cache"    // cache operations
	CatWatcher  Category = "watcher"  // File watcher events
	CatHost     Category = "host"     // Container, router and translation collaborators
	CatDB       Category = "db"       // Database operations
)

// Format selects how entries are written.
type Format int

const (
	// FormatText: 2025-12-06T10:45:00 [ERROR] [registry] message key=value
	FormatText Format = iota
	// FormatJSON: one object per line with time, level, category, msg and
	// the fields as top-level keys.
	FormatJSON
)

// ParseFormat maps "json" to FormatJSON and anything else to FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, "json") {
		return FormatJSON
	}
	return FormatText
}

// Logger provides structured logging.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	enabled  bool
	minLevel Level
	format   Format
	now      func() time.Time
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the global logger writing to the file at path.
// Returns a cleanup function to close the log file.
func Init(path string) (func(), error) {
	var initErr error
	once.Do(func() {
		defaultLogger, initErr = newLogger(path)
	})
	if initErr != nil {
		return nil, initErr
	}
	// Check if logger was initialized (handles case where once.Do already ran)
	if defaultLogger == nil {
		return nil, fmt.Errorf("logger initialization failed or already attempted")
	}
	return func() {
		if defaultLogger != nil && defaultLogger.file != nil {
			_ = defaultLogger.file.Close()
		}
	}, nil
}

// InitWriter points the global logger at w, replacing any previous logger.
// Used for --debug output to stderr and by tests.
func InitWriter(w io.Writer) {
	defaultLogger = &Logger{
		writer:   w,
		enabled:  true,
		minLevel: LevelDebug,
		now:      time.Now,
	}
}

func newLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: path is user-controlled debug log path
	if err != nil {
		return nil, err
	}

	return &Logger{
		file:     f,
		writer:   f,
		enabled:  true,
		minLevel: LevelDebug,
		now:      time.Now,
	}, nil
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.enabled = enabled
		defaultLogger.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.minLevel = level
		defaultLogger.mu.Unlock()
	}
}

// SetFormat sets the output format.
func SetFormat(format Format) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.format = format
		defaultLogger.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

func log(level Level, cat Category, msg string, fields ...any) {
	if defaultLogger == nil {
		return
	}

	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()

	if !defaultLogger.enabled || level < defaultLogger.minLevel || defaultLogger.writer == nil {
		return
	}

	ts := defaultLogger.now().Format("2006-01-02T15:04:05")
	var entry []byte
	if defaultLogger.format == FormatJSON {
		entry = jsonEntry(ts, level, cat, msg, fields)
	} else {
		entry = textEntry(ts, level, cat, msg, fields)
	}
	_, _ = defaultLogger.writer.Write(entry)
}

func textEntry(ts string, level Level, cat Category, msg string, fields []any) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", ts, level, cat, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	// Odd field count - append orphan key with no value
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func jsonEntry(ts string, level Level, cat Category, msg string, fields []any) []byte {
	obj := make(map[string]any, 4+len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		obj[fmt.Sprint(fields[i])] = jsonValue(fields[i+1])
	}
	if len(fields)%2 != 0 {
		obj[fmt.Sprint(fields[len(fields)-1])] = "<missing>"
	}
	// Fixed keys win over fields of the same name.
	obj["time"] = ts
	obj["level"] = level.String()
	obj["category"] = string(cat)
	obj["msg"] = msg

	data, err := json.Marshal(obj)
	if err != nil {
		return textEntry(ts, level, cat, msg, fields)
	}
	return append(data, '\n')
}

// jsonValue keeps values encoding/json renders usefully and stringifies
// the rest (errors, durations, structs with unexported fields).
func jsonValue(v any) any {
	switch v := v.(type) {
	case nil, bool, string, int, int32, int64, uint, uint32, uint64, float32, float64,
		[]string, map[string]bool:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}
