package cli

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/raoulx24/ghee/internal/retention"
)

func newValidateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file and print the parsed jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := getGlobalOptions(cmd)
			cfg, _, err := e.loadConfig(g)
			if err != nil {
				return err
			}

			tbl := uitable.New()
			tbl.AddRow("NAME", "SUBVOLUME", "TARGET", "BACKEND", "GROUPS", "RETENTION", "MIN")
			for _, j := range cfg.ResolvedJobs() {
				rules := retention.FormatRules(j.Retention)
				if rules == "" {
					rules = "-"
				}
				groups := strings.Join(j.Groups, ",")
				if groups == "" {
					groups = "-"
				}
				tbl.AddRow(j.Name, j.Subvolume, j.Target, j.Backend, groups, rules, j.Min)
			}

			fmt.Fprintf(e.stdout, "%s: %s, time zone %s\n", g.ConfigPath, plural(len(cfg.Jobs), "job"), cfg.Location())
			fmt.Fprintln(e.stdout, tbl)
			return nil
		},
	}
}
