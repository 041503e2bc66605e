package infra

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the application logger from config. Level defaults to INFO
// when unset or unrecognized.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToUpper(cfg.Logging.Level) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// Recover logs and re-panics after dumping the panic value. Deferred at the
// top of cmd mains so a crash is always visible in the structured log.
func Recover() {
	if r := recover(); r != nil {
		slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
		panic(r)
	}
}
