package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pg "policyguard/internal/adapters/postgres"
	"policyguard/internal/config"
)

func newMigrateCmd(g *globalOptions) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded Postgres migrations",
		Long: `Apply the embedded schema migrations to the database named by
--database-url or DATABASE_URL. The server does this itself at startup
unless AUTO_MIGRATE=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if g.store == "" {
				g.store = config.StorePostgres
			}
			cfg, err := g.config()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != config.StorePostgres {
				return fmt.Errorf("migrate needs the postgres store, got %q", cfg.StoreBackend)
			}
			ctx := cmd.Context()
			db, err := pg.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer db.Close()
			if !statusOnly {
				if err := db.Migrate(ctx); err != nil {
					return err
				}
			}
			v, err := db.MigrationVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only print the applied schema version")
	return cmd
}
