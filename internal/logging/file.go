package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Install makes a bracketed handler on w the default logger, including the
// standard log package, and returns it.
func Install(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(NewHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	log.SetOutput(w)
	return logger
}

// ConfigureRuntime sends logs to ~/.local/state/<app>/<app>.log, since the
// terminal UI owns stdout. On any failure logs go to stderr. The returned
// function closes the log file.
func ConfigureRuntime(app string, level slog.Level) (path string, closeFn func()) {
	home, err := os.UserHomeDir()
	if err != nil {
		Install(os.Stderr, level)
		return "", func() {}
	}

	logDir := filepath.Join(home, ".local", "state", app)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		Install(os.Stderr, level)
		return "", func() {}
	}

	path = filepath.Join(logDir, app+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		Install(os.Stderr, level)
		return "", func() {}
	}

	Install(f, level)
	return path, func() {
		_ = f.Close()
	}
}
