// Package cmdutil holds helpers shared by the command packages.
package cmdutil

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/daemonclient"
)

// ErrHTTPDisabled is returned when a command needs the daemon's HTTP API,
// no --addr was given and daemon.http_port is 0.
var ErrHTTPDisabled = errors.New("daemon http server is disabled; pass --addr")

// CheckDaemonAddress fails when neither addr nor the configuration names a
// daemon address.
func CheckDaemonAddress(addr string) error {
	if addr == "" && config.GetInt("daemon.http_port") <= 0 {
		return ErrHTTPDisabled
	}
	return nil
}

// DaemonClient returns a client for addr, or for daemon.http_bind and
// daemon.http_port when addr is empty.
func DaemonClient(addr string, timeout time.Duration) *daemonclient.Client {
	return daemonclient.New(config.DaemonConfig{
		HTTPBind: config.GetString("daemon.http_bind"),
		HTTPPort: config.GetInt("daemon.http_port"),
	}, daemonclient.WithAddress(addr), daemonclient.WithTimeout(timeout))
}

// ResolvePath expands "~" and returns an absolute, cleaned path, as written
// into unit files and used by config init. Empty input returns "".
func ResolvePath(path string) (string, error) {
	expanded := config.ExpandPath(path)
	if expanded == "" {
		return "", nil
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
