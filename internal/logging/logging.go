package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// ParseLevel accepts debug/info/warn(ing)/error or a numeric slog level.
// An empty string means info.
func ParseLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return slog.LevelInfo, nil
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}
	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// New builds a logger writing text or json to w.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Configure installs a default logger for level and format.
func Configure(w io.Writer, rawLevel, format string) error {
	level, err := ParseLevel(rawLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(New(w, level, format))
	return nil
}
