package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type contextKey string

const requestIDKey contextKey = "request_id"

type implLogger struct {
	logger  *log.Logger
	out     io.Writer
	mu      sync.Mutex
	level   string
	json    bool
	service string
}

type entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Service   string    `json:"service"`
	RequestID string    `json:"request_id,omitempty"`
	Message   string    `json:"message"`
}

// New creates a text logger writing to stdout.
func New(level string) Logger {
	return NewWithFormat(level, "text", os.Stdout)
}

// NewWithFormat creates a logger in "text" or "json" format.
func NewWithFormat(level, format string, out io.Writer) Logger {
	return &implLogger{
		logger:  log.New(out, "", log.LstdFlags),
		out:     out,
		level:   strings.ToLower(level),
		json:    strings.EqualFold(format, "json"),
		service: "demozone",
	}
}

// WithRequestID stores a request id for log lines emitted under ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request id carried by ctx, if any.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (l *implLogger) shouldLog(level string) bool {
	levels := map[string]int{
		"debug": 0,
		"info":  1,
		"warn":  2,
		"error": 3,
	}

	currentLevel, ok := levels[l.level]
	if !ok {
		currentLevel = 1 // default to info
	}

	targetLevel, ok := levels[level]
	if !ok {
		return true
	}

	return targetLevel >= currentLevel
}

func (l *implLogger) write(ctx context.Context, level, msg string, args []interface{}) {
	if !l.shouldLog(level) {
		return
	}
	text := fmt.Sprintf(msg, args...)
	reqID := RequestID(ctx)

	if !l.json {
		prefix := "[" + strings.ToUpper(level) + "] "
		if reqID != "" {
			prefix += "[" + reqID + "] "
		}
		l.logger.Print(prefix + text)
		return
	}

	data, err := json.Marshal(entry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Service:   l.service,
		RequestID: reqID,
		Message:   text,
	})
	if err != nil {
		l.logger.Printf("[ERROR] marshal log entry: %v, original message: %s", err, text)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(data, '\n'))
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "debug", msg, args)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "info", msg, args)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "warn", msg, args)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.write(ctx, "error", msg, args)
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return NewWithFormat("error", "text", io.Discard)
}
