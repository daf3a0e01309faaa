// Package service provides the service command, which manages the systemd unit.
package service

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/statusmirror/internal/cmdutil"
	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/servicemanager"
)

var (
	systemScope bool
	runAsUser   string
	watchdogSec int
)

// ServiceCmd is the parent command for the systemd service subcommands.
var ServiceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the statusmirror systemd service",
	Long: "Manage the statusmirror systemd service.\n\n" +
		"Installs statusmirror as a Type=notify systemd unit that runs 'statusmirror run' " +
		"with the current configuration file. User units are installed by default; " +
		"use --system for a system unit.",
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and enable the systemd unit",
	Example: `  # Install a user unit
  statusmirror service install

  # Install a system unit running as a dedicated account with a watchdog
  sudo statusmirror service install --system --user statusmirror --watchdog 120`,
	PreRunE: silenceUsage,
	RunE:    runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:     "uninstall",
	Short:   "Stop, disable and remove the systemd unit",
	PreRunE: silenceUsage,
	RunE:    runUninstall,
}

var unitCmd = &cobra.Command{
	Use:     "unit",
	Short:   "Print the unit file that install would write",
	PreRunE: silenceUsage,
	RunE:    runUnit,
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show whether the unit is installed and running",
	PreRunE: silenceUsage,
	RunE:    runStatus,
}

func init() {
	ServiceCmd.PersistentFlags().BoolVar(&systemScope, "system", false, "Use a system unit instead of a user unit")
	for _, c := range []*cobra.Command{installCmd, unitCmd} {
		c.Flags().StringVar(&runAsUser, "user", "", "Account a system unit runs as")
		c.Flags().IntVar(&watchdogSec, "watchdog", 0, "systemd watchdog timeout in seconds (0 disables)")
	}

	ServiceCmd.AddCommand(installCmd)
	ServiceCmd.AddCommand(uninstallCmd)
	ServiceCmd.AddCommand(unitCmd)
	ServiceCmd.AddCommand(statusCmd)
}

func silenceUsage(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func scope() servicemanager.Scope {
	if systemScope {
		return servicemanager.ScopeSystem
	}
	return servicemanager.ScopeUser
}

// unitOptions builds the unit from the loaded configuration.
func unitOptions() servicemanager.UnitOptions {
	opts := servicemanager.UnitOptions{
		BinaryPath:  servicemanager.GetBinaryPath(),
		User:        runAsUser,
		WatchdogSec: watchdogSec,
	}
	if path, err := cmdutil.ResolvePath(config.ConfigFilePath()); err == nil {
		opts.ConfigPath = path
	}
	return opts
}

func runInstall(cmd *cobra.Command, args []string) error {
	m, err := servicemanager.NewManager(scope())
	if err != nil {
		return err
	}
	if err := m.Install(cmd.Context(), unitOptions()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", m.UnitPath())
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	m, err := servicemanager.NewManager(scope())
	if err != nil {
		return err
	}
	if err := m.Uninstall(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", m.UnitPath())
	return nil
}

func runUnit(cmd *cobra.Command, args []string) error {
	unit, err := servicemanager.RenderUnit(scope(), unitOptions())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), unit)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	m, err := servicemanager.NewManager(scope())
	if err != nil {
		return err
	}
	status, err := m.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get service status; %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Unit:    %s\n", m.UnitPath())
	fmt.Fprintf(out, "State:   %s\n", status.ServiceState)
	if status.ServiceState == servicemanager.ServiceStateNotInstalled {
		return nil
	}
	fmt.Fprintf(out, "Active:  %s", status.ActiveState)
	if status.SubState != "" {
		fmt.Fprintf(out, " (%s)", status.SubState)
	}
	fmt.Fprintln(out)
	if status.PID > 0 {
		fmt.Fprintf(out, "PID:     %d\n", status.PID)
	}
	return nil
}
