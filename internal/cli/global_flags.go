package cli

import (
	"github.com/spf13/cobra"

	"github.com/raoulx24/ghee/internal/config"
)

type globalOptions struct {
	ConfigPath string
	DryRun     bool
	Verbose    bool
	Quiet      bool
	Workers    int
}

// addGlobalFlags adds the persistent flags shared by every subcommand.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Path to the configuration file")
	cmd.PersistentFlags().BoolP("dryrun", "n", false, "Report the plan without creating or deleting anything")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Only log errors and do not print tables")
	cmd.PersistentFlags().IntP("workers", "w", 0, "Jobs processed in parallel (overrides the config file when > 0)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

func getGlobalOptions(cmd *cobra.Command) globalOptions {
	flags := cmd.Root().PersistentFlags()
	path, _ := flags.GetString("config")
	dry, _ := flags.GetBool("dryrun")
	verbose, _ := flags.GetBool("verbose")
	quiet, _ := flags.GetBool("quiet")
	workers, _ := flags.GetInt("workers")
	return globalOptions{ConfigPath: path, DryRun: dry, Verbose: verbose, Quiet: quiet, Workers: workers}
}
