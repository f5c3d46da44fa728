package errors

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Logger is a JSON slog logger that knows how to log AppErrors.
type Logger struct {
	*slog.Logger
}

// New returns a logger writing to stderr, so stdout stays free for command output.
func New(level string) (*Logger, error) {
	l, ok := levels[level]
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	return NewLogger(os.Stderr, l), nil
}

func NewLogger(w io.Writer, level slog.Level) *Logger {
	return &Logger{slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{slog.New(slog.DiscardHandler)}
}

// LogError logs err at error level. AppErrors contribute their type, code,
// message and context as attributes.
func (l *Logger) LogError(err error, message string, args ...any) {
	appErr, ok := As(err)
	if !ok {
		l.Error(message, append([]any{"error", err.Error()}, args...)...)
		return
	}

	attrs := make([]any, 0, 6+2*len(appErr.Context)+len(args))
	attrs = append(attrs,
		"error_type", appErr.Type,
		"error_code", appErr.Code,
		"error_message", appErr.Message)
	if appErr.Cause != nil {
		attrs = append(attrs, "cause", appErr.Cause.Error())
	}
	for k, v := range appErr.Context {
		attrs = append(attrs, k, v)
	}
	l.Error(message, append(attrs, args...)...)
}
