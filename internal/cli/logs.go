package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"policyguard/internal/domain"
)

type logsOptions struct {
	department string
	risk       string
	limit      int
}

func newLogsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Query the audit log",
	}

	o := &logsOptions{}
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded checks, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := domain.LogFilter{Limit: o.limit}
			if o.department != "" {
				filter.Department = &o.department
			}
			if o.risk != "" {
				lvl, err := domain.ParseRiskLevel(o.risk)
				if err != nil {
					return err
				}
				filter.Risk = &lvl
			}

			ctx := cmd.Context()
			a, err := g.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			entries, err := a.Compliance.ListLogs(ctx, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if g.output == "json" {
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No entries.")
			}
			for _, e := range entries {
				printEntry(out, e)
			}
			return nil
		},
	}
	list.Flags().StringVar(&o.department, "department", "", "Only entries for this department")
	list.Flags().StringVar(&o.risk, "risk", "", "Only entries with this overall risk")
	list.Flags().IntVar(&o.limit, "limit", 20, "Maximum entries to print, 0 for all")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one recorded check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			ctx := cmd.Context()
			a, err := g.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			e, err := a.Compliance.GetLog(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if g.output == "json" {
				return writeJSON(out, e)
			}
			printEntry(out, e)
			printResult(out, e.Result())
			return nil
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}
