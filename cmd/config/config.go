// Package config provides the config parent command and subcommands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/leefowlercu/statusmirror/cmd/config/subcommands"
)

// ConfigCmd is the parent command for all config-related subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage statusmirror configuration",
	Long: "Manage statusmirror configuration.\n\n" +
		"The config command allows you to view, validate and create the statusmirror " +
		"configuration. Configuration is stored in a YAML file located at " +
		"~/.config/statusmirror/config.yaml by default.",
}

func init() {
	ConfigCmd.AddCommand(subcommands.ShowCmd)
	ConfigCmd.AddCommand(subcommands.ValidateCmd)
	ConfigCmd.AddCommand(subcommands.InitCmd)
}
