// Package subcommands provides the config subcommands (show, validate, init).
package subcommands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leefowlercu/statusmirror/internal/config"
)

var (
	showRaw bool
)

// ShowCmd displays the current configuration.
var ShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current configuration",
	Long: "Display the current configuration.\n\n" +
		"Shows the current statusmirror configuration values. By default, shows " +
		"the effective configuration with defaults and environment overrides applied. " +
		"Use --raw to show only the contents of the config file. Secrets are never " +
		"printed; only the names of the variables they are read from.",
	Example: `  # Show effective configuration
  statusmirror config show

  # Show only the config file
  statusmirror config show --raw`,
	PreRunE: validateShow,
	RunE:    runShow,
}

func init() {
	ShowCmd.Flags().BoolVar(&showRaw, "raw", false, "Show only the config file contents (no defaults)")
}

func validateShow(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if showRaw {
		return showRawConfig(cmd)
	}
	return showEffectiveConfig(cmd)
}

func showRawConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	configPath := config.ConfigFilePath()
	if configPath == "" {
		fmt.Fprintln(out, "# No configuration file found")
		fmt.Fprintf(out, "# Default location: %s\n", config.DefaultConfigPath())
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file; %w", err)
	}

	fmt.Fprintf(out, "# Configuration file: %s\n", configPath)
	fmt.Fprintln(out, string(data))
	return nil
}

func showEffectiveConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	settings := redact(config.GetAllSettings())

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to format configuration; %w", err)
	}

	fmt.Fprintln(out, "# Effective configuration (with defaults)")
	fmt.Fprintf(out, "# Config file: %s\n", orNone(config.ConfigFilePath()))
	fmt.Fprintln(out, string(data))
	return nil
}

// redact masks inline secrets in the zabbix and cachet sections.
func redact(settings map[string]any) map[string]any {
	secrets := map[string]string{"zabbix": "password", "cachet": "token"}
	for section, key := range secrets {
		sub, ok := settings[section].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := sub[key]; ok && v != "" && v != nil {
			sub[key] = "********"
		}
	}
	return settings
}

func orNone(path string) string {
	if path == "" {
		return "(none)"
	}
	return path
}
