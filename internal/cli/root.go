// Package cli implements the policyctl command: one-off and batch
// compliance checks, rule catalog inspection and audit log queries against
// the same stores the server uses.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"policyguard/internal/app"
	"policyguard/internal/config"
	"policyguard/internal/telemetry"
)

type globalOptions struct {
	rulesPath   string
	store       string
	sqlitePath  string
	databaseURL string
	logLevel    string
	output      string
}

// NewRootCmd builds the command tree. Output goes to cmd.OutOrStdout so
// tests can capture it.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "policyctl",
		Short: "Check text against corporate communication policies",
		Long: `policyctl runs the policyguard rule engine from the command line.

Checks are recorded in the configured audit log exactly as the server
records them.`,
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.rulesPath, "rules", "", "Path to a rule catalog YAML (embedded defaults when empty)")
	pf.StringVar(&opts.store, "store", "", "Audit log backend: memory, sqlite or postgres (defaults from environment)")
	pf.StringVar(&opts.sqlitePath, "sqlite-path", "", "SQLite database file for --store=sqlite")
	pf.StringVar(&opts.databaseURL, "database-url", "", "Postgres URL for --store=postgres")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	pf.StringVarP(&opts.output, "output", "o", "text", "Output format: text or json")

	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newBatchCmd(opts))
	root.AddCommand(newRulesCmd(opts))
	root.AddCommand(newLogsCmd(opts))
	root.AddCommand(newMigrateCmd(opts))
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *globalOptions) config() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil && o.store == "" {
		return cfg, err
	}
	if o.rulesPath != "" {
		cfg.RulesPath = o.rulesPath
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.sqlitePath != "" {
		cfg.SQLitePath = o.sqlitePath
	}
	if o.store != "" {
		cfg.StoreBackend = o.store
	}
	cfg.LogLevel = o.logLevel
	return cfg, cfg.Validate()
}

// catalogPath is --rules, falling back to RULES_PATH.
func (o *globalOptions) catalogPath() string {
	if o.rulesPath != "" {
		return o.rulesPath
	}
	return os.Getenv("RULES_PATH")
}

func (o *globalOptions) logger(w io.Writer) (*slog.Logger, error) {
	return telemetry.NewLogger(telemetry.LogConfig{Level: o.logLevel, Format: "text", Writer: w})
}

// open builds the application for one command invocation.
func (o *globalOptions) open(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	if o.output != "text" && o.output != "json" {
		return nil, fmt.Errorf("unknown output format %q", o.output)
	}
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	logger, err := o.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, logger)
}
