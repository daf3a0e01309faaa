package servicemanager

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
)

const unitTemplate = `[Unit]
Description=statusmirror - Zabbix to Cachet status page mirror
Wants=network-online.target
After=network-online.target
StartLimitBurst=5
StartLimitIntervalSec=60

[Service]
Type=notify
NotifyAccess=main
ExecStart={{.BinaryPath}} run{{if .ConfigPath}} --config {{.ConfigPath}}{{end}}
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=5
{{- if gt .WatchdogSec 0}}
WatchdogSec={{.WatchdogSec}}
{{- end}}
{{- if .User}}
User={{.User}}
{{- end}}
{{- range .Environment}}
Environment={{.}}
{{- end}}

[Install]
WantedBy={{.WantedBy}}
`

// UnitOptions describes the unit file to render.
type UnitOptions struct {
	BinaryPath string
	ConfigPath string

	// User runs a system unit as this account. Ignored for user units.
	User string

	// WatchdogSec enables the systemd watchdog. Zero disables it.
	WatchdogSec int

	// Environment holds KEY=value pairs, e.g. the *_env secret names.
	Environment []string
}

// RenderUnit renders the unit file for the given scope.
func RenderUnit(scope Scope, opts UnitOptions) (string, error) {
	if opts.BinaryPath == "" {
		opts.BinaryPath = GetBinaryPath()
	}
	data := struct {
		UnitOptions
		WantedBy string
	}{UnitOptions: opts, WantedBy: "multi-user.target"}
	if scope == ScopeUser {
		data.User = ""
		data.WantedBy = "default.target"
	}

	tmpl, err := template.New("unit").Parse(unitTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse unit template; %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute unit template; %w", err)
	}
	return buf.String(), nil
}

// Manager installs and controls the statusmirror unit through systemctl.
type Manager struct {
	executor CommandExecutor
	scope    Scope
	unitDir  string
}

// Option configures a Manager.
type Option func(*Manager)

// WithExecutor replaces the command executor.
func WithExecutor(e CommandExecutor) Option {
	return func(m *Manager) {
		m.executor = e
	}
}

// WithUnitDir overrides the directory the unit file is written to.
func WithUnitDir(dir string) Option {
	return func(m *Manager) {
		m.unitDir = dir
	}
}

// NewManager creates a manager for the given scope.
func NewManager(scope Scope, opts ...Option) (*Manager, error) {
	m := &Manager{
		executor: NewCommandExecutor(),
		scope:    scope,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.unitDir == "" {
		switch scope {
		case ScopeUser:
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory; %w", err)
			}
			m.unitDir = filepath.Join(home, ".config", "systemd", "user")
		case ScopeSystem:
			m.unitDir = "/etc/systemd/system"
		default:
			return nil, fmt.Errorf("unknown service scope %q", scope)
		}
	}
	return m, nil
}

// UnitPath returns the path of the unit file.
func (m *Manager) UnitPath() string {
	return filepath.Join(m.unitDir, ServiceName)
}

func (m *Manager) systemctl(ctx context.Context, args ...string) ([]byte, error) {
	if m.scope == ScopeUser {
		args = append([]string{"--user"}, args...)
	}
	return m.executor.Run(ctx, "systemctl", args...)
}

// Install writes the unit file, reloads systemd and enables the service.
func (m *Manager) Install(ctx context.Context, opts UnitOptions) error {
	content, err := RenderUnit(m.scope, opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.unitDir, 0755); err != nil {
		return fmt.Errorf("failed to create unit directory; %w", err)
	}
	if err := os.WriteFile(m.UnitPath(), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write unit file; %w", err)
	}

	if _, err := m.systemctl(ctx, "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd daemon; %w", err)
	}
	if _, err := m.systemctl(ctx, "enable", ServiceName); err != nil {
		return fmt.Errorf("failed to enable service; %w", err)
	}
	return nil
}

// Uninstall stops the service, disables auto-start, and removes the unit file.
func (m *Manager) Uninstall(ctx context.Context) error {
	// Stop and disable fail harmlessly when the unit is not running or enabled.
	_, _ = m.systemctl(ctx, "stop", ServiceName)
	_, _ = m.systemctl(ctx, "disable", ServiceName)

	if err := os.Remove(m.UnitPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file; %w", err)
	}

	_, _ = m.systemctl(ctx, "daemon-reload")
	return nil
}

// Reload asks the running daemon to reopen its log file.
func (m *Manager) Reload(ctx context.Context) error {
	if _, err := m.systemctl(ctx, "reload", ServiceName); err != nil {
		return fmt.Errorf("failed to reload service; %w", err)
	}
	return nil
}

// IsInstalled checks if the unit file exists.
func (m *Manager) IsInstalled() (bool, error) {
	_, err := os.Stat(m.UnitPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Status returns the installation and run state of the service.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	status := Status{ServiceState: ServiceStateNotInstalled}

	installed, err := m.IsInstalled()
	if err != nil {
		return status, err
	}
	if !installed {
		return status, nil
	}

	output, err := m.systemctl(ctx, "show", ServiceName,
		"--property=ActiveState,SubState,MainPID,UnitFileState")
	if err != nil {
		status.ServiceState = ServiceStateDisabled
		return status, nil
	}

	return parseSystemctlOutput(string(output)), nil
}

// parseSystemctlOutput parses the output of systemctl show.
func parseSystemctlOutput(output string) Status {
	status := Status{ServiceState: ServiceStateDisabled}

	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}

		switch key {
		case "ActiveState":
			status.ActiveState = value
			status.IsRunning = value == "active" || value == "activating" || value == "reloading"
		case "SubState":
			status.SubState = value
		case "MainPID":
			if p, err := strconv.Atoi(value); err == nil && p > 0 {
				status.PID = p
			}
		case "UnitFileState":
			switch value {
			case "enabled", "enabled-runtime":
				status.ServiceState = ServiceStateEnabled
			case "disabled":
				status.ServiceState = ServiceStateDisabled
			}
		}
	}

	return status
}
