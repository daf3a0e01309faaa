// Package version provides the version command.
package version

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/statusmirror/internal/version"
)

var (
	versionShort bool
	versionJSON  bool
)

// VersionCmd displays version and build information.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version and build information",
	Long: "Display version and build information.\n\n" +
		"Shows the semantic version, git commit, build date and Go toolchain " +
		"of the current statusmirror binary.",
	Example: `  # Display version information
  statusmirror version

  # Only the version number, for scripts
  statusmirror version --short`,
	PreRunE: validateVersion,
	RunE:    runVersion,
}

func init() {
	VersionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	VersionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build information as JSON")
}

func validateVersion(cmd *cobra.Command, args []string) error {
	if versionShort && versionJSON {
		return fmt.Errorf("--short and --json are mutually exclusive")
	}

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	switch {
	case versionShort:
		fmt.Fprintln(out, info.Version)
	case versionJSON:
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format version; %w", err)
		}
		fmt.Fprintln(out, string(data))
	default:
		fmt.Fprintln(out, info.String())
	}
	return nil
}
