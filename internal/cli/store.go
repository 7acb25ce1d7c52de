package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pet-adoption/internal/adapters/storage/sqlstore"
	"pet-adoption/internal/config"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	skipMark = color.New(color.FgYellow).Sprint("=")
)

// openStore abre la base configurada y aplica migraciones pendientes.
func openStore(cmd *cobra.Command) (*sqlstore.Store, error) {
	var files []string
	if f, _ := cmd.Flags().GetString("env-file"); f != "" {
		files = append(files, f)
	}

	cfg, err := config.LoadDB(files...)
	if err != nil {
		return nil, err
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required (an in-memory database would be lost on exit)")
	}

	db, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlstore.Migrate(db, cfg.DBDriver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqlstore.New(db, cfg.DBDriver), nil
}
