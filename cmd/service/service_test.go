package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/statusmirror/internal/testutil"
)

func TestRunUnit_UsesLoadedConfig(t *testing.T) {
	env := testutil.NewTestEnv(t)
	runAsUser, watchdogSec, systemScope = "statusmirror", 90, true
	t.Cleanup(func() { runAsUser, watchdogSec, systemScope = "", 0, false })

	buf := new(bytes.Buffer)
	unitCmd.SetOut(buf)
	require.NoError(t, runUnit(unitCmd, nil))

	unit := buf.String()
	assert.Contains(t, unit, "run --config "+env.ConfigPath)
	assert.Contains(t, unit, "Type=notify")
	assert.Contains(t, unit, "User=statusmirror")
	assert.Contains(t, unit, "WatchdogSec=90")
	assert.Contains(t, unit, "WantedBy=multi-user.target")
}

func TestRunUnit_UserScope(t *testing.T) {
	testutil.NewTestEnv(t)

	buf := new(bytes.Buffer)
	unitCmd.SetOut(buf)
	require.NoError(t, runUnit(unitCmd, nil))

	unit := buf.String()
	assert.NotContains(t, unit, "User=")
	assert.NotContains(t, unit, "WatchdogSec")
	assert.Contains(t, unit, "WantedBy=default.target")
}
