// Package logger is the bot-wide logger. Messages carry a level and a
// prefix naming the subsystem; they go to the console, optionally to log
// files and, for configured levels, to Discord webhooks.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelCritical LogLevel = iota
	LevelError
	LevelWarn
	LevelSuccess
	LevelInfo
	LevelDebug
	LevelSystem
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelCritical:
		return "CRITICAL"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelSuccess:
		return "SUCCESS"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Color returns the ANSI color code for the log level
func (l LogLevel) Color() string {
	switch l {
	case LevelCritical:
		return "\033[1;31m" // Bold Red
	case LevelError:
		return "\033[31m" // Red
	case LevelWarn:
		return "\033[33m" // Yellow
	case LevelSuccess:
		return "\033[32m" // Green
	case LevelInfo:
		return "\033[36m" // Cyan
	case LevelDebug:
		return "\033[35m" // Magenta
	case LevelSystem:
		return "\033[34m" // Blue
	default:
		return "\033[0m" // Reset
	}
}

// DiscordColor returns the Discord embed color for the log level
func (l LogLevel) DiscordColor() int {
	switch l {
	case LevelCritical, LevelError:
		return 0xFF0000
	case LevelWarn:
		return 0xFFFF00
	case LevelSuccess:
		return 0x00FF00
	case LevelInfo:
		return 0x0000FF
	case LevelDebug:
		return 0x800080
	case LevelSystem:
		return 0x808080
	default:
		return 0xFFFFFF
	}
}

// logrusLevel maps our levels onto logrus severities
func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LevelCritical, LevelError:
		return logrus.ErrorLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelDebug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

const (
	colorReset = "\033[0m"
	timeFormat = "2006-01-02 15:04:05"
	fieldLevel = "level_name"
	fieldPfx   = "prefix"
)

// Options configures a Logger
type Options struct {
	ErrorWebhook string
	LogsWebhook  string
	// Dir enables combined.log and error.log under it when set
	Dir   string
	Debug bool
}

// Logger is the main logging structure
type Logger struct {
	logrus  *logrus.Logger
	files   []*os.File
	webhook *webhookHook
}

var (
	logger *Logger
	once   sync.Once
)

// Init initializes the global logger instance
func Init(opts Options) *Logger {
	once.Do(func() {
		logger = NewLogger(opts)
	})
	return logger
}

// Get returns the global logger, a console-only one if Init wasn't called
func Get() *Logger {
	once.Do(func() {
		logger = NewLogger(Options{})
	})
	return logger
}

// NewLogger creates a new Logger instance
func NewLogger(opts Options) *Logger {
	l := &Logger{logrus: logrus.New()}

	l.logrus.SetOutput(os.Stdout)
	l.logrus.SetFormatter(&lineFormatter{colors: true})
	l.logrus.SetLevel(logrus.InfoLevel)
	if opts.Debug {
		l.logrus.SetLevel(logrus.DebugLevel)
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			fmt.Printf("Error creating logs directory: %v\n", err)
		} else {
			combined := l.openFile(filepath.Join(opts.Dir, "combined.log"))
			errFile := l.openFile(filepath.Join(opts.Dir, "error.log"))
			l.logrus.AddHook(&fileHook{
				combined:  combined,
				errors:    errFile,
				formatter: &lineFormatter{},
			})
		}
	}

	if opts.ErrorWebhook != "" || opts.LogsWebhook != "" {
		l.webhook = &webhookHook{
			errorURL: opts.ErrorWebhook,
			logsURL:  opts.LogsWebhook,
			client:   &http.Client{Timeout: 5 * time.Second},
		}
		l.logrus.AddHook(l.webhook)
	}
	return l
}

func (l *Logger) openFile(path string) io.Writer {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", path, err)
		return nil
	}
	l.files = append(l.files, f)
	return f
}

// Logrus exposes the underlying logger for libraries that want one
func (l *Logger) Logrus() *logrus.Logger {
	return l.logrus
}

// SetOutput redirects console output
func (l *Logger) SetOutput(w io.Writer) {
	l.logrus.SetOutput(w)
}

// Close closes the log files
func (l *Logger) Close() {
	for _, f := range l.files {
		_ = f.Close()
	}
	l.files = nil
}

func (l *Logger) log(level LogLevel, message, prefix string) {
	l.logrus.WithFields(logrus.Fields{
		fieldLevel: level,
		fieldPfx:   prefix,
	}).Log(level.logrusLevel(), message)
}

// lineFormatter renders "[time] [LEVEL] [prefix]: message"
type lineFormatter struct {
	colors bool
}

func entryLevel(e *logrus.Entry) LogLevel {
	if lvl, ok := e.Data[fieldLevel].(LogLevel); ok {
		return lvl
	}
	switch e.Level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return LevelCritical
	case logrus.ErrorLevel:
		return LevelError
	case logrus.WarnLevel:
		return LevelWarn
	case logrus.DebugLevel, logrus.TraceLevel:
		return LevelDebug
	default:
		return LevelInfo
	}
}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	level := entryLevel(e)
	prefix, _ := e.Data[fieldPfx].(string)
	if prefix == "" {
		prefix = "SYS"
	}

	name := level.String()
	if f.colors {
		name = level.Color() + name + colorReset
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] [%s] [%s]: %s", e.Time.Format(timeFormat), name, prefix, e.Message)
	for k, v := range e.Data {
		if k == fieldLevel || k == fieldPfx {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// fileHook mirrors every entry to combined.log and errors to error.log
type fileHook struct {
	mu        sync.Mutex
	combined  io.Writer
	errors    io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(e *logrus.Entry) error {
	line, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.combined != nil {
		_, _ = h.combined.Write(line)
	}
	if h.errors != nil && entryLevel(e) <= LevelError {
		_, _ = h.errors.Write(line)
	}
	return nil
}

// webhookHook posts entries to Discord: errors to one webhook, the rest to
// another
type webhookHook struct {
	errorURL string
	logsURL  string
	client   *http.Client
}

func (h *webhookHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *webhookHook) Fire(e *logrus.Entry) error {
	level := entryLevel(e)
	url := h.logsURL
	if level <= LevelError {
		url = h.errorURL
	}
	if url == "" {
		return nil
	}
	prefix, _ := e.Data[fieldPfx].(string)
	go h.send(url, level, prefix, e.Message, e.Time)
	return nil
}

func (h *webhookHook) send(url string, level LogLevel, prefix, message string, at time.Time) {
	payload := map[string]interface{}{
		"embeds": []interface{}{map[string]interface{}{
			"title":       fmt.Sprintf("[%s] %s", level.String(), prefix),
			"description": fmt.Sprintf("```%s```", message),
			"color":       level.DiscordColor(),
			"timestamp":   at.Format(time.RFC3339),
			"footer": map[string]string{
				"text": "PancyMod Go",
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	resp, err := h.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

// Logging methods

// Critical logs a critical message
func (l *Logger) Critical(message string, prefix string) {
	l.log(LevelCritical, message, prefix)
}

// Error logs an error message
func (l *Logger) Error(message string, prefix string) {
	l.log(LevelError, message, prefix)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, prefix string) {
	l.log(LevelWarn, message, prefix)
}

// Success logs a success message
func (l *Logger) Success(message string, prefix string) {
	l.log(LevelSuccess, message, prefix)
}

// Info logs an info message
func (l *Logger) Info(message string, prefix string) {
	l.log(LevelInfo, message, prefix)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, prefix string) {
	l.log(LevelDebug, message, prefix)
}

// System logs a system message
func (l *Logger) System(message string, prefix string) {
	l.log(LevelSystem, message, prefix)
}

// Package-level functions for convenience

func Critical(message string, prefix string) { Get().Critical(message, prefix) }
func Error(message string, prefix string)    { Get().Error(message, prefix) }
func Warn(message string, prefix string)     { Get().Warn(message, prefix) }
func Success(message string, prefix string)  { Get().Success(message, prefix) }
func Info(message string, prefix string)     { Get().Info(message, prefix) }
func Debug(message string, prefix string)    { Get().Debug(message, prefix) }
func System(message string, prefix string)   { Get().System(message, prefix) }
