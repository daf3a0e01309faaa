package subcommands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/testutil"
)

func TestRunInit_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	initPath, initForce = path, false
	initZabbix, initCachet, initRootService = "https://zabbix.example.com", "https://status.example.com", "Status Page"
	t.Cleanup(func() { initPath, initZabbix, initCachet, initRootService = "", "", "", "" })

	buf := new(bytes.Buffer)
	InitCmd.SetOut(buf)
	require.NoError(t, runInit(InitCmd, nil))
	assert.Contains(t, buf.String(), path)

	t.Setenv("ZABBIX_PASSWORD", "secret")
	t.Setenv("CACHET_TOKEN", "token")
	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "Status Page", cfg.Sync.RootService)
	assert.Equal(t, "https://zabbix.example.com", cfg.Zabbix.Server)
	assert.Nil(t, cfg.Zabbix.Password, "secrets are not written")

	err = runInit(InitCmd, nil)
	require.Error(t, err, "existing file is not overwritten without --force")

	initForce = true
	t.Cleanup(func() { initForce = false })
	require.NoError(t, runInit(InitCmd, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestRedact(t *testing.T) {
	settings := map[string]any{
		"zabbix": map[string]any{"password": "hunter2", "password_env": "ZABBIX_PASSWORD"},
		"cachet": map[string]any{"token_env": "CACHET_TOKEN"},
		"sync":   map[string]any{"root_service": "Shop"},
	}

	got := redact(settings)

	assert.Equal(t, "********", got["zabbix"].(map[string]any)["password"])
	assert.Equal(t, "ZABBIX_PASSWORD", got["zabbix"].(map[string]any)["password_env"])
	assert.NotContains(t, got["cachet"].(map[string]any), "token")
	assert.Equal(t, "Shop", got["sync"].(map[string]any)["root_service"])
}

func TestRunValidate(t *testing.T) {
	env := testutil.NewTestEnv(t)

	buf := new(bytes.Buffer)
	ValidateCmd.SetOut(buf)
	require.NoError(t, runValidate(ValidateCmd, nil))
	assert.Contains(t, buf.String(), env.ConfigPath)

	t.Setenv(config.DefaultCachetTokenEnv, "")
	buf.Reset()
	require.Error(t, runValidate(ValidateCmd, nil))
	assert.Contains(t, buf.String(), "cachet.token")
}
