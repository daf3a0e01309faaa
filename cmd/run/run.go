// Package run provides the run command, which starts the mirror daemon.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/daemon"
)

var rotateLogs = func() error { return nil }

// SetLogRotator sets the function called on SIGHUP to reopen the log file.
func SetLogRotator(fn func() error) {
	rotateLogs = fn
}

// RunCmd runs the daemon in the foreground.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the mirror daemon in the foreground",
	Long: "Run the mirror daemon in the foreground.\n\n" +
		"The daemon syncs the component topology from the root IT service, reconciles " +
		"one incident per trigger every incident interval and, when metric services are " +
		"configured, appends SLA values to their uptime metrics. It exposes /healthz, " +
		"/readyz, /metrics, /mappings and /sync on the configured HTTP address and " +
		"notifies systemd when run as a notify service. SIGHUP reopens the log file.",
	Example: `  # Run with the default configuration search path
  statusmirror run

  # Run with an explicit configuration file
  statusmirror run --config /etc/statusmirror/config.yaml`,
	PreRunE: validateRun,
	RunE:    runRun,
}

var loadedConfig *config.Config

func validateRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration; %w", err)
	}
	loadedConfig = cfg

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reopenLogsOnHangup(ctx)

	logger := slog.Default()
	logger.Info("starting statusmirror",
		"config_file", config.ConfigFilePath(),
		"root_service", loadedConfig.Sync.RootService,
		"zabbix", loadedConfig.Zabbix.Server,
		"cachet", loadedConfig.Cachet.Server,
	)

	if err := daemon.Run(ctx, loadedConfig, logger); err != nil {
		return fmt.Errorf("daemon error; %w", err)
	}
	return nil
}

func reopenLogsOnHangup(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := rotateLogs(); err != nil {
				slog.Warn("failed to reopen log file", "error", err)
				continue
			}
			slog.Info("log file reopened")
		}
	}
}
