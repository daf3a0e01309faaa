// Package status provides the status command, which queries a running daemon.
package status

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/statusmirror/internal/cmdutil"
	"github.com/leefowlercu/statusmirror/internal/daemon"
)

var (
	statusAddr    string
	statusJSON    bool
	statusTimeout time.Duration
)

// StatusCmd shows the health of a running daemon.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health of a running daemon",
	Long: "Show the health of a running daemon.\n\n" +
		"Queries the daemon's /readyz endpoint and prints the overall status and " +
		"the health of each component. Exits non-zero when the daemon is not " +
		"reachable or not ready.",
	Example: `  # Check the daemon configured in config.yaml
  statusmirror status

  # Check a daemon on another address
  statusmirror status --addr 10.0.0.5:7700`,
	PreRunE: validateStatus,
	RunE:    runStatus,
}

func init() {
	StatusCmd.Flags().StringVar(&statusAddr, "addr", "", "Daemon HTTP address (host:port); defaults to daemon.http_bind:daemon.http_port")
	StatusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw health document")
	StatusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "Request timeout")
}

func validateStatus(cmd *cobra.Command, args []string) error {
	if err := cmdutil.CheckDaemonAddress(statusAddr); err != nil {
		return err
	}

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := cmdutil.DaemonClient(statusAddr, statusTimeout)
	health, err := client.Ready(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		data, err := json.MarshalIndent(health, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format health; %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprint(out, formatHealth(health))
	}

	if !health.Ready {
		return fmt.Errorf("daemon at %s is not ready", client.BaseURL())
	}
	return nil
}

func formatHealth(h *daemon.HealthStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status:  %s\n", h.Status)
	fmt.Fprintf(&b, "Ready:   %t\n", h.Ready)
	fmt.Fprintf(&b, "Uptime:  %s\n", h.Uptime.Round(time.Second))

	names := make([]string, 0, len(h.Components))
	for name := range h.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 0 {
		b.WriteString("Components:\n")
	}
	for _, name := range names {
		c := h.Components[name]
		fmt.Fprintf(&b, "  %-10s %s", name, c.Status)
		if !c.LastSuccess.IsZero() {
			fmt.Fprintf(&b, " (last success %s)", c.LastSuccess.Format(time.RFC3339))
		}
		if c.Error != "" {
			fmt.Fprintf(&b, ": %s", c.Error)
		}
		b.WriteString("\n")
	}
	return b.String()
}
