package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/medical"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/reference"
	"pet-adoption/internal/domain/reports"
	"pet-adoption/internal/domain/users"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// MemoryDSN es una base SQLite en memoria, privada de cada pool.
const MemoryDSN = "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite"

// Open abre un pool con pgx (postgres) o modernc (sqlite) y hace ping.
func Open(driver, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
	case DriverSQLite:
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// SQLite admite un solo escritor; en memoria, cerrar la última conexión borra la base.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory abre una SQLite en memoria con el esquema ya migrado.
func OpenMemory() (*Store, error) {
	db, err := Open(DriverSQLite, MemoryDSN)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, DriverSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, DriverSQLite), nil
}

// Store agrupa los repositorios sobre un mismo pool.
type Store struct {
	db *sql.DB
	x  *sqlx.DB
	d  dialect
}

func New(db *sql.DB, driver string) *Store {
	d := dialectFor(driver)
	return &Store{
		db: db,
		x:  sqlx.NewDb(db, d.sqlxDriver()),
		d:  d,
	}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Driver() string { return s.d.name }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Users() users.Repository { return &usersRepo{db: s.db} }

func (s *Store) Reference() reference.Repository { return &referenceRepo{db: s.db} }

func (s *Store) Pets() pets.Repository { return &petsRepo{db: s.db, d: s.d} }

func (s *Store) Medical() medical.Repository { return &medicalRepo{db: s.db} }

func (s *Store) Applications() applications.Store { return &applicationsStore{db: s.db, d: s.d} }

func (s *Store) Reports() reports.Repository { return &reportsRepo{x: s.x, d: s.d} }

// withTx corre fn en una transacción: commit si fn devuelve nil, rollback si no.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func utc(t time.Time) time.Time { return t.UTC() }

// day normaliza columnas DATE a medianoche UTC.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nullDay(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: day(*t), Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
