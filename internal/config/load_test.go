package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `log_level: debug
zabbix:
  server: https://zabbix.example.com
  user: mirror
  password: secret
cachet:
  server: https://status.example.com
  token: abc123
sync:
  root_service: Cachet
  component_interval: 120
  incident_interval: 30
  metric_interval: 600
  metric_services: [Website, API]
  time_zone: UTC
daemon:
  http_port: 9000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFromPath_ValidConfig_ReturnsTypedConfig(t *testing.T) {
	cfg, err := LoadFromPath(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://zabbix.example.com", cfg.Zabbix.Server)
	assert.Equal(t, "secret", cfg.Zabbix.ResolvePassword())
	assert.Equal(t, "abc123", cfg.Cachet.ResolveToken())
	assert.Equal(t, "Cachet", cfg.Sync.RootService)
	assert.Equal(t, []string{"Website", "API"}, cfg.Sync.MetricServices)
	assert.Equal(t, 9000, cfg.Daemon.HTTPPort)

	// Unset values fall back to defaults
	assert.Equal(t, DefaultDaemonHTTPBind, cfg.Daemon.HTTPBind)
	assert.Equal(t, DefaultSyncMaxBackoff, cfg.Sync.MaxBackoff)
	assert.True(t, cfg.Zabbix.HTTPSVerify)
}

func TestLoadFromPath_SecretsFromEnvironment(t *testing.T) {
	t.Setenv("MY_ZBX_PASS", "from-env")
	t.Setenv("MY_CACHET_TOKEN", "token-env")

	cfg, err := LoadFromPath(writeConfig(t, `zabbix:
  server: http://zbx.local
  password_env: MY_ZBX_PASS
cachet:
  server: http://cachet.local
  token_env: MY_CACHET_TOKEN
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Zabbix.ResolvePassword())
	assert.Equal(t, "token-env", cfg.Cachet.ResolveToken())
}

func TestLoadFromPath_InvalidConfig_ReturnsValidationErrors(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "sync:\n  incident_interval: 0\n"))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.True(t, IsMisconfigured(err))
	assert.Contains(t, err.Error(), "sync.incident_interval")
	assert.Contains(t, err.Error(), "zabbix.server")
}

func TestLoad_FromGlobalViper(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Init(writeConfig(t, validConfigYAML)))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Sync.IncidentInterval)
}
