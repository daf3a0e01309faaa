// Package sync provides the sync command, a one-shot topology sync.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leefowlercu/statusmirror/internal/cmdutil"
	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/daemon"
	"github.com/leefowlercu/statusmirror/internal/topology"
)

// SyncCmd runs a single topology sync and prints the resulting mapping.
var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the component topology once and print the mapping",
	Long: "Sync the component topology once and print the mapping.\n\n" +
		"Reads the IT service tree below the root service, creates any missing " +
		"component groups and components on the status page, and prints the " +
		"trigger to component mapping as YAML. No incidents are touched.\n\n" +
		"With --daemon the sync is scheduled on a running daemon instead, which " +
		"restarts its reconcile loop if the mapping changed.",
	Example: `  # Sync and print the mapping
  statusmirror sync

  # Ask the running daemon to sync now
  statusmirror sync --daemon`,
	PreRunE: validateSync,
	RunE:    runSync,
}

// Report is the document printed by the sync command.
type Report struct {
	RootService string            `yaml:"root_service"`
	Mappings    topology.Snapshot `yaml:"mappings"`
}

var (
	loadedConfig *config.Config
	viaDaemon    bool
	daemonAddr   string
)

func init() {
	SyncCmd.Flags().BoolVar(&viaDaemon, "daemon", false, "Schedule the sync on a running daemon")
	SyncCmd.Flags().StringVar(&daemonAddr, "addr", "", "Daemon HTTP address (host:port), used with --daemon")
}

func validateSync(cmd *cobra.Command, args []string) error {
	if viaDaemon {
		if err := cmdutil.CheckDaemonAddress(daemonAddr); err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration; %w", err)
	}
	loadedConfig = cfg

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if viaDaemon {
		return triggerDaemon(ctx, cmd)
	}

	snap, err := syncOnce(ctx, loadedConfig, slog.Default())
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(Report{RootService: loadedConfig.Sync.RootService, Mappings: snap})
	if err != nil {
		return fmt.Errorf("failed to format mapping; %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func syncOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger) (topology.Snapshot, error) {
	syncer := topology.NewSynchronizer(
		daemon.NewMonitor(cfg, logger),
		daemon.NewStatusPage(cfg, logger),
		cfg.Sync.RootService,
		topology.WithLogger(logger),
	)

	snap, err := syncer.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("topology sync failed; %w", err)
	}
	return snap, nil
}

func triggerDaemon(ctx context.Context, cmd *cobra.Command) error {
	client := cmdutil.DaemonClient(daemonAddr, 5*time.Second)

	resp, err := client.TriggerSync(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sync %s on %s\n", resp.Status, client.BaseURL())
	return nil
}
