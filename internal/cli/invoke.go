package cli

import (
	"github.com/spf13/cobra"

	"github.com/raoulx24/ghee/internal/metrics"
	"github.com/raoulx24/ghee/internal/orchestrator"
)

// newInvokeCmd builds the run, dryrun and prune commands. Trailing
// arguments are group names; without any, every job is selected.
func newInvokeCmd(e *env, mode orchestrator.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   mode.String() + " [group...]",
		Short: short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := getGlobalOptions(cmd)
			cfg, log, err := e.loadConfig(g)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			return e.invoke(cmd.Context(), g, cfg, log, metrics.New(), mode, args)
		},
	}
}
