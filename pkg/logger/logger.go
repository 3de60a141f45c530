package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Loggers struct {
	InfoLogger  *slog.Logger
	ErrorLogger *slog.Logger
}

func SetupLogger(level string) (*Loggers, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewLoggers(os.Stdout, os.Stderr, lvl), nil
}

func NewLoggers(infoOut, errOut io.Writer, level slog.Level) *Loggers {
	return &Loggers{
		InfoLogger:  slog.New(slog.NewJSONHandler(infoOut, &slog.HandlerOptions{Level: level})),
		ErrorLogger: slog.New(slog.NewJSONHandler(errOut, &slog.HandlerOptions{Level: slog.LevelError, AddSource: true})),
	}
}

func Discard() *Loggers {
	return NewLoggers(io.Discard, io.Discard, slog.LevelInfo)
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
