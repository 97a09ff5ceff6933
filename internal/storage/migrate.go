package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema means an earlier migration stopped halfway. The ledger is
// left alone until someone repairs it with `migrate force`.
var ErrDirtySchema = errors.New("ledger schema is dirty")

// SchemaVersion is the migration level recorded in a ledger database.
type SchemaVersion struct {
	Version uint
	Dirty   bool
}

// RunMigrations upgrades the ledger at dsn and returns the level it ends at.
func RunMigrations(dsn string) (SchemaVersion, error) {
	// Own connection: closing the migrator closes its database handle.
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("open ledger for migration: %w", err)
	}
	defer conn.Close()

	target, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("ledger migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("embedded ledger migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", target)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("ledger migrator: %w", err)
	}
	defer m.Close()

	before, err := schemaVersion(m)
	if err != nil {
		return before, err
	}
	if before.Dirty {
		return before, fmt.Errorf("%w at version %d", ErrDirtySchema, before.Version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return before, fmt.Errorf("upgrade ledger schema from version %d: %w", before.Version, err)
	}

	after, err := schemaVersion(m)
	if err != nil {
		return after, err
	}
	if after != before {
		slog.Info("Ledger schema upgraded", "from", before.Version, "to", after.Version)
	}
	return after, nil
}

func schemaVersion(m *migrate.Migrate) (SchemaVersion, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, nil
	}
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("read ledger schema version: %w", err)
	}
	return SchemaVersion{Version: v, Dirty: dirty}, nil
}
