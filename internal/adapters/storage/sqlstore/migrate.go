package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate aplica las migraciones embebidas. Es idempotente.
func Migrate(db *sql.DB, driver string) error {
	m, err := newMigrator(db, driver)
	if err != nil {
		return err
	}
	// No se llama m.Close(): cerraría db, que pertenece al caller.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrationVersion devuelve la versión aplicada (0 si no hay ninguna).
func MigrationVersion(db *sql.DB, driver string) (uint, bool, error) {
	m, err := newMigrator(db, driver)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func newMigrator(db *sql.DB, driver string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations source: %w", err)
	}

	var (
		drv  database.Driver
		name string
	)
	switch dialectFor(driver).name {
	case DriverSQLite:
		drv, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
		name = "sqlite"
	default:
		drv, err = migratepgx.WithInstance(db, &migratepgx.Config{})
		name = "pgx5"
	}
	if err != nil {
		return nil, fmt.Errorf("migrations driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", src, name, drv)
}
