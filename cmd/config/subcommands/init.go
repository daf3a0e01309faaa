package subcommands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/statusmirror/internal/cmdutil"
	"github.com/leefowlercu/statusmirror/internal/config"
)

var (
	initPath        string
	initForce       bool
	initZabbix      string
	initCachet      string
	initRootService string
)

// InitCmd writes a starter configuration file.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: "Write a starter configuration file.\n\n" +
		"Writes the default configuration, with the given server URLs and root " +
		"service filled in, to ~/.config/statusmirror/config.yaml or --path. " +
		"Secrets are not written; set ZABBIX_PASSWORD and CACHET_TOKEN in the " +
		"daemon's environment.",
	Example: `  # Write a starter configuration
  statusmirror config init --zabbix https://zabbix.example.com \
    --cachet https://status.example.com --root-service "Status Page"`,
	PreRunE: validateInit,
	RunE:    runInit,
}

func init() {
	InitCmd.Flags().StringVar(&initPath, "path", "", "Where to write the file (default ~/.config/statusmirror/config.yaml)")
	InitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	InitCmd.Flags().StringVar(&initZabbix, "zabbix", "", "Zabbix frontend URL")
	InitCmd.Flags().StringVar(&initCachet, "cachet", "", "Cachet base URL")
	InitCmd.Flags().StringVar(&initRootService, "root-service", "", "Name of the root IT service")
}

func validateInit(cmd *cobra.Command, args []string) error {
	if initPath == "" {
		initPath = config.DefaultConfigPath()
		if initPath == "" {
			return fmt.Errorf("cannot determine home directory; pass --path")
		}
	}
	path, err := cmdutil.ResolvePath(initPath)
	if err != nil {
		return fmt.Errorf("invalid path %q; %w", initPath, err)
	}
	initPath = path

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := config.NewDefaultConfig()
	cfg.Zabbix.Server = initZabbix
	cfg.Cachet.Server = initCachet
	cfg.Sync.RootService = initRootService

	if err := config.Write(&cfg, initPath, initForce); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", initPath)
	return nil
}
