package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pet-adoption/internal/adapters/storage/sqlstore"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply the embedded schema migrations to the configured database.
Running it again is a no-op.

Examples:
  DB_DRIVER=sqlite DB_DSN=file:adoption.db adoptctl migrate
  adoptctl migrate --env-file .env.prod`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			v, dirty, err := sqlstore.MigrationVersion(store.DB(), store.Driver())
			if err != nil {
				return err
			}

			state := color.New(color.FgGreen).Sprint("clean")
			if dirty {
				state = color.New(color.FgRed).Sprint("DIRTY")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d (%s)\n", okMark, v, state)
			return nil
		},
	}
}
