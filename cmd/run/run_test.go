package run

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/testutil"
)

func TestValidateRun_LoadsConfig(t *testing.T) {
	testutil.NewTestEnv(t)
	t.Cleanup(func() { loadedConfig = nil })

	cmd := &cobra.Command{}
	require.NoError(t, validateRun(cmd, nil))

	require.NotNil(t, loadedConfig)
	assert.Equal(t, "Status Page", loadedConfig.Sync.RootService)
	assert.True(t, cmd.SilenceUsage)
}

func TestValidateRun_InvalidConfig(t *testing.T) {
	testutil.NewTestEnv(t)
	t.Cleanup(func() { loadedConfig = nil })
	t.Setenv(config.DefaultCachetTokenEnv, "")

	cmd := &cobra.Command{}
	err := validateRun(cmd, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "cachet.token")
	assert.Nil(t, loadedConfig)
	assert.False(t, cmd.SilenceUsage, "usage is shown for configuration errors")
}
