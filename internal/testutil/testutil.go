// Package testutil provides testing utilities for isolated test environments.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leefowlercu/statusmirror/internal/config"
)

// Secrets the generated configuration resolves through the environment.
const (
	ZabbixPassword = "test-password"
	CachetToken    = "test-token"
)

// TestEnv provides an isolated test environment with its own config directory.
type TestEnv struct {
	t          *testing.T
	ConfigDir  string
	ConfigPath string
}

// NewTestEnv writes a valid configuration into a fresh config directory and
// initializes the global config from it.
// Secrets and the log file are redirected through environment variables.
// Cleanup is automatic via t.Cleanup.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	configDir := filepath.Join(t.TempDir(), "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create test config dir: %v", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	t.Setenv(config.EnvPrefix+"_CONFIG_DIR", configDir)
	t.Setenv(config.EnvPrefix+"_LOG_FILE", filepath.Join(configDir, "statusmirror.log"))
	t.Setenv(config.DefaultZabbixPasswordEnv, ZabbixPassword)
	t.Setenv(config.DefaultCachetTokenEnv, CachetToken)

	cfg := config.NewDefaultConfig()
	cfg.Zabbix.Server = "https://zabbix.example.com"
	cfg.Cachet.Server = "https://status.example.com"
	cfg.Sync.RootService = "Status Page"
	if err := config.Write(&cfg, configPath, false); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config.Reset()
	if err := config.Init(""); err != nil {
		t.Fatalf("failed to initialize test config: %v", err)
	}

	t.Cleanup(func() {
		config.Reset()
	})

	return &TestEnv{
		t:          t,
		ConfigDir:  configDir,
		ConfigPath: configPath,
	}
}

// Set overrides one configuration key for the rest of the test.
func (e *TestEnv) Set(key string, value any) {
	e.t.Helper()
	config.Set(key, value)
}
