package sqlstore

import (
	"fmt"
	"strings"
)

// dialect cubre lo poco que difiere entre Postgres y SQLite.
// Los placeholders $n funcionan en ambos.
type dialect struct {
	name string
}

func dialectFor(driver string) dialect {
	if strings.EqualFold(strings.TrimSpace(driver), DriverSQLite) {
		return dialect{name: DriverSQLite}
	}
	return dialect{name: DriverPostgres}
}

func (d dialect) sqlxDriver() string {
	if d.name == DriverSQLite {
		return "sqlite"
	}
	return "pgx"
}

// forUpdate: SQLite serializa escrituras a nivel base, no tiene lock de fila.
func (d dialect) forUpdate() string {
	if d.name == DriverSQLite {
		return ""
	}
	return " FOR UPDATE"
}

// dateText devuelve la fecha como YYYY-MM-DD.
func (d dialect) dateText(expr string) string {
	if d.name == DriverSQLite {
		return fmt.Sprintf("substr(%s, 1, 10)", expr)
	}
	return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", expr)
}

// daysBetween devuelve (to - from) en días enteros.
func (d dialect) daysBetween(from, to string) string {
	if d.name == DriverSQLite {
		return fmt.Sprintf("CAST(julianday(substr(%s, 1, 10)) - julianday(substr(%s, 1, 10)) AS INTEGER)", to, from)
	}
	return fmt.Sprintf("(%s - %s)", to, from)
}
