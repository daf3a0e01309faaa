// Package servicemanager installs and inspects statusmirror as a systemd
// service.
package servicemanager

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
)

// ServiceName is the systemd unit name.
const ServiceName = "statusmirror.service"

// Scope selects the systemd instance a unit is installed into.
type Scope string

const (
	// ScopeUser installs a user unit under ~/.config/systemd/user.
	ScopeUser Scope = "user"

	// ScopeSystem installs a system unit under /etc/systemd/system.
	ScopeSystem Scope = "system"
)

// ServiceState represents the installation state of the service.
type ServiceState string

const (
	// ServiceStateEnabled indicates the service is installed and enabled for auto-start.
	ServiceStateEnabled ServiceState = "enabled"

	// ServiceStateDisabled indicates the service is installed but not enabled for auto-start.
	ServiceStateDisabled ServiceState = "disabled"

	// ServiceStateNotInstalled indicates the service is not installed.
	ServiceStateNotInstalled ServiceState = "not-installed"
)

// String returns the service state as a string.
func (s ServiceState) String() string {
	return string(s)
}

// Status is the state of the installed service as systemd reports it.
type Status struct {
	ServiceState ServiceState
	ActiveState  string
	SubState     string
	PID          int
	IsRunning    bool
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type defaultExecutor struct{}

func (e *defaultExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NewCommandExecutor returns the default command executor.
func NewCommandExecutor() CommandExecutor {
	return &defaultExecutor{}
}

// GetBinaryPath returns the path to the statusmirror binary.
// It checks in order:
// 1. The current executable path
// 2. ~/.local/bin/statusmirror
// 3. PATH lookup
func GetBinaryPath() string {
	if exe, err := os.Executable(); err == nil {
		return exe
	}

	if home, err := os.UserHomeDir(); err == nil {
		localBin := filepath.Join(home, ".local", "bin", "statusmirror")
		if _, err := os.Stat(localBin); err == nil {
			return localBin
		}
	}

	if path, err := exec.LookPath("statusmirror"); err == nil {
		return path
	}

	return "statusmirror"
}
