package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"policyguard/internal/rules"
)

func newRulesCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the rule catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := rules.Load(g.catalogPath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if g.output == "json" {
				return writeJSON(out, set.Rules())
			}
			for i, r := range set.Rules() {
				fmt.Fprintf(out, "%2d. %-24s %-6s %s\n", i+1, r.ID, r.Severity, r.Category)
				if r.When != "" {
					fmt.Fprintf(out, "    when: %s\n", r.When)
				}
				if len(r.Keywords) > 0 {
					fmt.Fprintf(out, "    keywords: %s\n", strings.Join(r.Keywords, ", "))
				}
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Compile a rule catalog and report the first error",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.catalogPath()
			if len(args) == 1 {
				path = args[0]
			}
			set, err := rules.Load(path)
			if err != nil {
				return err
			}
			if path == "" {
				path = "embedded defaults"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rules OK\n", path, set.Len())
			return nil
		},
	})
	return cmd
}
