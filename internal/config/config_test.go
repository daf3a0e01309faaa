package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit_NoConfigFile_UsesDefaults(t *testing.T) {
	// Override HOME and the config dir to prevent finding a real config
	tmpDir := t.TempDir()
	t.Setenv("STATUSMIRROR_CONFIG_DIR", tmpDir)
	t.Setenv("HOME", tmpDir)
	t.Chdir(tmpDir)

	Reset()
	t.Cleanup(Reset)

	if err := Init(""); err != nil {
		t.Fatalf("Init() returned error when no config file exists: %v", err)
	}

	if path := ConfigFilePath(); path != "" {
		t.Errorf("ConfigFilePath() = %q, want empty string when no config file", path)
	}
	if got := GetString("sync.root_service"); got != "" {
		t.Errorf("sync.root_service = %q, want empty default", got)
	}
}

func TestInit_ConfigInEnvDir_LoadsFromEnvDir(t *testing.T) {
	envDir := t.TempDir()
	configPath := filepath.Join(envDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("sync:\n  root_service: Cachet\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("STATUSMIRROR_CONFIG_DIR", envDir)
	Reset()
	t.Cleanup(Reset)

	if err := Init(""); err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}

	if got := ConfigFilePath(); got != configPath {
		t.Errorf("ConfigFilePath() = %q, want %q", got, configPath)
	}
	if got := GetString("sync.root_service"); got != "Cachet" {
		t.Errorf("sync.root_service = %q, want %q", got, "Cachet")
	}
}

func TestInit_ExplicitPathMissing_ReturnsError(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	err := Init(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Init() should fail when an explicit config file does not exist")
	}
}

func TestInit_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("sync: [unclosed\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	Reset()
	t.Cleanup(Reset)

	if err := Init(path); err == nil {
		t.Fatal("Init() should fail on invalid YAML")
	}
}

func TestInit_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("STATUSMIRROR_CONFIG_DIR", tmpDir)
	t.Setenv("HOME", tmpDir)
	t.Setenv("STATUSMIRROR_SYNC_ROOT_SERVICE", "Production")
	t.Chdir(tmpDir)

	Reset()
	t.Cleanup(Reset)

	if err := Init(""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got := GetString("sync.root_service"); got != "Production" {
		t.Errorf("sync.root_service = %q, want env override %q", got, "Production")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/logs/app.log", filepath.Join(home, "logs", "app.log")},
		{"~other/x", "~other/x"},
		{"/abs/path", "/abs/path"},
	}
	for _, tt := range tests {
		if got := expandHome(tt.in); got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
