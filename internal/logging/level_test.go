package logging

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input     string
		wantLevel slog.Level
		wantOK    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{" error\n", slog.LevelError, true},

		{"", DefaultLevel, false},
		{"trace", DefaultLevel, false},
		{"infoo", DefaultLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotLevel, gotOK := ParseLevel(tt.input)
			if gotOK != tt.wantOK {
				t.Errorf("ParseLevel(%q) ok = %v, want %v", tt.input, gotOK, tt.wantOK)
			}
			if gotLevel != tt.wantLevel {
				t.Errorf("ParseLevel(%q) level = %v, want %v", tt.input, gotLevel, tt.wantLevel)
			}
		})
	}
}

func TestLevelNamesAllParse(t *testing.T) {
	prev := slog.Level(-100)
	for _, name := range LevelNames {
		level, ok := ParseLevel(name)
		if !ok {
			t.Errorf("ParseLevel(%q) not accepted", name)
		}
		if level < prev {
			t.Errorf("LevelNames not ordered by severity at %q", name)
		}
		prev = level
	}
}
