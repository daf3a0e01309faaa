package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	configcmd "github.com/leefowlercu/statusmirror/cmd/config"
	"github.com/leefowlercu/statusmirror/cmd/mappings"
	"github.com/leefowlercu/statusmirror/cmd/run"
	"github.com/leefowlercu/statusmirror/cmd/service"
	"github.com/leefowlercu/statusmirror/cmd/status"
	synccmd "github.com/leefowlercu/statusmirror/cmd/sync"
	"github.com/leefowlercu/statusmirror/cmd/version"
	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/logging"
)

// logManager is the global logging manager, created in init() and upgraded after config loads
var logManager *logging.Manager

var (
	configPath string
	logLevel   string
)

var statusmirrorCmd = &cobra.Command{
	Use:   "statusmirror",
	Short: "Mirror Zabbix IT service health onto a Cachet status page",
	Long: "statusmirror keeps a Cachet status page in step with a Zabbix IT service tree.\n\n" +
		"It derives components and component groups from the services below a root service, " +
		"opens, updates and resolves one incident per trigger as problems come and go, " +
		"and copies service SLA values into uptime metrics.",
	PersistentPreRunE: runInitialize,
}

func init() {
	logManager = logging.NewManager()
	slog.SetDefault(logManager.Logger())
	run.SetLogRotator(logManager.Rotate)

	statusmirrorCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")
	statusmirrorCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log_level ("+strings.Join(logging.LevelNames, ", ")+")")

	statusmirrorCmd.AddCommand(run.RunCmd)
	statusmirrorCmd.AddCommand(synccmd.SyncCmd)
	statusmirrorCmd.AddCommand(status.StatusCmd)
	statusmirrorCmd.AddCommand(mappings.MappingsCmd)
	statusmirrorCmd.AddCommand(configcmd.ConfigCmd)
	statusmirrorCmd.AddCommand(service.ServiceCmd)
	statusmirrorCmd.AddCommand(version.VersionCmd)
}

func runInitialize(cmd *cobra.Command, args []string) error {
	logger := logManager.Logger()

	if err := config.Init(configPath); err != nil {
		return err
	}

	if logLevel != "" {
		config.Set("log_level", logLevel)
	}

	levelStr := config.GetString("log_level")
	level, ok := logging.ParseLevel(levelStr)
	if !ok {
		level = logging.DefaultLevel
		if levelStr != "" {
			logger.Warn("invalid log level configured, using default", "configured", levelStr, "default", "info")
		}
	}

	err := logManager.Upgrade(logging.FileOptions{
		Path:       config.GetPath("log_file"),
		Level:      level,
		MaxSizeMB:  config.GetInt("log.max_size_mb"),
		MaxBackups: config.GetInt("log.max_backups"),
		MaxAgeDays: config.GetInt("log.max_age_days"),
		Compress:   config.GetBool("log.compress"),
	})
	if err != nil {
		logger.Warn("failed to enable file logging, continuing with stderr only", "error", err)
	}

	return nil
}

func Execute() error {
	statusmirrorCmd.SilenceErrors = true
	statusmirrorCmd.SilenceUsage = true

	defer func() { _ = logManager.Close() }()

	err := statusmirrorCmd.Execute()

	if err != nil {
		cmd, _, _ := statusmirrorCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = statusmirrorCmd
		}

		fmt.Printf("Error: %v\n", err)
		if !cmd.SilenceUsage {
			fmt.Printf("\n")
			cmd.SetOut(os.Stdout)
			_ = cmd.Usage()
		}

		return err
	}

	return nil
}
