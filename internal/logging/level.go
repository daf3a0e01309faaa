package logging

import (
	"log/slog"
	"strings"
)

// DefaultLevel is the log level used when none is configured.
const DefaultLevel = slog.LevelInfo

// levelNames maps accepted names to levels. "warning" is the spelling
// Zabbix and systemd journals use.
var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// LevelNames lists the accepted level names, most verbose first.
var LevelNames = []string{"debug", "info", "warn", "warning", "error"}

// ParseLevel converts a level name to slog.Level, ignoring case and
// surrounding space. Unknown names yield (DefaultLevel, false).
func ParseLevel(s string) (slog.Level, bool) {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return DefaultLevel, false
	}
	return level, true
}
