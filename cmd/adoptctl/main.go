package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pet-adoption/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "adoptctl",
		Short: "adoptctl - admin tooling for the pet adoption API",
		Long: `adoptctl runs schema migrations, seeds the reference catalog and manages user roles.
It reads the same DB_DRIVER / DB_DSN settings as the API (env or .env).`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("env-file", "", "optional .env file to load")

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.UsersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
