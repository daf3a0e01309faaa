// Package mappings provides the mappings command, which prints the mapping
// a running daemon is reconciling.
package mappings

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/statusmirror/internal/cmdutil"
	"github.com/leefowlercu/statusmirror/internal/daemon"
)

var (
	mappingsAddr string
	mappingsJSON bool
)

// MappingsCmd prints the trigger to component mapping of a running daemon.
var MappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Show the mapping a running daemon reconciles",
	Long: "Show the mapping a running daemon reconciles.\n\n" +
		"Queries the daemon's /mappings endpoint and prints one row per component: " +
		"the trigger it follows, its group and the status page ids. Uptime metric " +
		"bindings are listed after the components.",
	Example: `  # Show the mapping
  statusmirror mappings

  # Raw JSON
  statusmirror mappings --json`,
	PreRunE: validateMappings,
	RunE:    runMappings,
}

func init() {
	MappingsCmd.Flags().StringVar(&mappingsAddr, "addr", "", "Daemon HTTP address (host:port); defaults to daemon.http_bind:daemon.http_port")
	MappingsCmd.Flags().BoolVar(&mappingsJSON, "json", false, "Print the raw document")
}

func validateMappings(cmd *cobra.Command, args []string) error {
	if err := cmdutil.CheckDaemonAddress(mappingsAddr); err != nil {
		return err
	}

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runMappings(cmd *cobra.Command, args []string) error {
	client := cmdutil.DaemonClient(mappingsAddr, 5*time.Second)

	resp, err := client.Mappings(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if mappingsJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format mappings; %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	return printTable(cmd, resp)
}

func printTable(cmd *cobra.Command, resp *daemon.MappingsResponse) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "Loop: %s\n\n", orDash(resp.LoopID))
	fmt.Fprintln(w, "GROUP\tCOMPONENT\tCOMPONENT ID\tTRIGGER\tSERVICE")
	for _, m := range resp.Mappings {
		trigger := m.TriggerID
		if !m.TriggerKeyed() {
			trigger = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", orDash(m.GroupName), m.ComponentName, m.ComponentID, trigger, orDash(m.ServiceID))
	}

	if len(resp.Metrics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "SERVICE\tSERVICE ID\tMETRIC ID")
		for _, b := range resp.Metrics {
			fmt.Fprintf(w, "%s\t%s\t%d\n", b.ServiceName, b.ServiceID, b.MetricID)
		}
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
