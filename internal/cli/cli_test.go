package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-adoption/internal/adapters/storage/sqlstore"
	"pet-adoption/internal/domain/reference"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/capabilities"
)

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "adoptctl", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("env-file", "", "")
	root.AddCommand(MigrateCmd(), SeedCmd(), UsersCmd())
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRoot()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := root.Execute()
	return out.String(), err
}

// useFileDB apunta DB_DSN a una SQLite en disco que sobrevive entre comandos.
func useFileDB(t *testing.T) string {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "adoption.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite"
	t.Setenv("DB_DRIVER", sqlstore.DriverSQLite)
	t.Setenv("DB_DSN", dsn)
	return dsn
}

func openTestStore(t *testing.T, dsn string) *sqlstore.Store {
	t.Helper()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlstore.New(db, sqlstore.DriverSQLite)
}

func TestMigrateReportsVersion(t *testing.T) {
	useFileDB(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema at version 1 (clean)")

	// Segunda vez no cambia nada.
	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "version 1")
}

func TestMigrateRequiresDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", sqlstore.DriverSQLite)
	t.Setenv("DB_DSN", "")

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
}

func TestSeedIsIdempotent(t *testing.T) {
	dsn := useFileDB(t)

	out, err := run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "breed Dog / Labrador Retriever")
	assert.Contains(t, out, "shelter Main Shelter (Springfield)")

	out, err = run(t, "seed")
	require.NoError(t, err)
	assert.NotContains(t, out, "✓", "second run should only report existing rows")

	svc := reference.NewService(openTestStore(t, dsn).Reference())
	breeds, err := svc.ListBreeds(context.Background())
	require.NoError(t, err)
	assert.Len(t, breeds, len(starterBreeds))

	species, err := svc.ListSpecies(context.Background())
	require.NoError(t, err)
	assert.Len(t, species, 2)

	shelters, err := svc.ListShelters(context.Background())
	require.NoError(t, err)
	assert.Len(t, shelters, 1)
}

func TestUsersPromote(t *testing.T) {
	dsn := useFileDB(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	svc := users.NewService(openTestStore(t, dsn).Users(), nil)
	_, err = svc.Signup(context.Background(), users.SignupInput{
		Email: "ana@example.com", Password: "s3cret-pass", FirstName: "Ana", LastName: "Diaz",
	})
	require.NoError(t, err)

	out, err := run(t, "users", "promote", "--email", "ANA@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@example.com is now admin")

	_, err = run(t, "users", "promote", "--email", "nobody@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no account")

	_, err = run(t, "users", "promote", "--email", "ana@example.com", "--role", "root")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid role"))
}

func TestPromotedRoleIsPersisted(t *testing.T) {
	dsn := useFileDB(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	store := openTestStore(t, dsn)
	svc := users.NewService(store.Users(), nil)
	created, err := svc.Signup(context.Background(), users.SignupInput{
		Email: "ben@example.com", Password: "s3cret-pass", FirstName: "Ben", LastName: "Ortiz",
	})
	require.NoError(t, err)
	assert.Equal(t, capabilities.RoleUser, created.User.Role)

	_, err = run(t, "users", "promote", "--email", "ben@example.com")
	require.NoError(t, err)

	u, err := svc.GetByID(context.Background(), created.User.ID)
	require.NoError(t, err)
	assert.Equal(t, capabilities.RoleAdmin, u.Role)
}
