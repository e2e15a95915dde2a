package migrations

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed sql/*.sql
var files embed.FS

// Apply brings the schema up to the latest embedded version. The returned
// version is the one the database ends on.
func Apply(db *sqlx.DB) (uint, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return 0, errors.Wrap(err, "migrations source")
	}
	driver, err := migratepgx.WithInstance(db.DB, &migratepgx.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		return 0, errors.Wrap(err, "migrations driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return 0, errors.Wrap(err, "migrations init")
	}
	// m.Close is not called: it would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, errors.Wrap(err, "migrations up")
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, errors.Wrap(err, "migrations version")
	}
	if dirty {
		return version, errors.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
