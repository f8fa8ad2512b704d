package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger writes colored, category-tagged lines to stdout. All methods are
// safe for concurrent use.
type Logger struct {
	mu sync.Mutex

	debug   *color.Color
	info    *color.Color
	warn    *color.Color
	errc    *color.Color
	fatal   *color.Color
	tagged  *color.Color
	verbose bool
}

func NewLogger() *Logger {
	return &Logger{
		debug:   color.New(color.FgHiBlack),
		info:    color.New(color.FgCyan),
		warn:    color.New(color.FgYellow),
		errc:    color.New(color.FgRed),
		fatal:   color.New(color.FgRed, color.Bold),
		tagged:  color.New(color.FgGreen),
		verbose: os.Getenv("LOG_DEBUG") != "",
	}
}

// Close flushes nothing today but keeps the lifecycle symmetric with
// NewLogger so main can defer it.
func (l *Logger) Close() {}

func (l *Logger) write(c *color.Color, level, category, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	c.Printf("%s [%s] [%s] %s\n", ts, level, category, msg)
}

func (l *Logger) Debug(category, msg string) {
	if !l.verbose {
		return
	}
	l.write(l.debug, "DEBUG", category, msg)
}

func (l *Logger) Info(category, msg string)  { l.write(l.info, "INFO", category, msg) }
func (l *Logger) Warn(category, msg string)  { l.write(l.warn, "WARN", category, msg) }
func (l *Logger) Error(category, msg string) { l.write(l.errc, "ERROR", category, msg) }

func (l *Logger) Fatal(category, msg string) {
	l.write(l.fatal, "FATAL", category, msg)
	os.Exit(1)
}

// LogDatabase tags ledger operations: op is the SQL verb or phase, table the
// entity touched.
func (l *Logger) LogDatabase(op, table, msg string) {
	l.write(l.tagged, "DB", fmt.Sprintf("%s:%s", op, table), msg)
}

// LogKafka tags event-channel operations.
func (l *Logger) LogKafka(op, topic, msg string) {
	l.write(l.tagged, "KAFKA", fmt.Sprintf("%s:%s", op, topic), msg)
}

// LogOrder tags order lifecycle steps with the entity id.
func (l *Logger) LogOrder(op, id, msg string) {
	l.write(l.tagged, "ORDER", fmt.Sprintf("%s:%s", op, id), msg)
}

// LogProcess tags startup/shutdown phases.
func (l *Logger) LogProcess(stage, msg string) {
	l.write(l.info, "PROCESS", stage, msg)
}

// LogAPI records an HTTP round trip.
func (l *Logger) LogAPI(method, path, status, duration string) {
	l.write(l.info, "API", method, fmt.Sprintf("%s - %s (%s)", path, status, duration))
}

// LogSecurity records rate-limit hits and other suspicious traffic.
func (l *Logger) LogSecurity(kind, msg string) {
	l.write(l.warn, "SECURITY", kind, msg)
}
