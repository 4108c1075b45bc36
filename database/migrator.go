package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migration struct {
	version int
	name    string
}

// loadMigrations lists the embedded scripts ordered by the version number
// their names start with, e.g. 001_init.sql.
func loadMigrations() ([]migration, error) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		prefix, _, ok := strings.Cut(path.Base(name), "_")
		if !ok {
			return nil, fmt.Errorf("migration %s has no version prefix", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("parsing version of migration %s: %w", name, err)
		}
		migrations = append(migrations, migration{version: version, name: name})
	}

	slices.SortFunc(migrations, func(a, b migration) int { return a.version - b.version })
	return migrations, nil
}

// migrate applies the migrations newer than PRAGMA user_version. An existing
// database is backed up once before the first pending migration.
func (d *Database) migrate(ctx context.Context) error {
	current, err := d.Version(ctx)
	if err != nil {
		return err
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	pending := slices.DeleteFunc(migrations, func(m migration) bool { return m.version <= current })
	if len(pending) == 0 {
		return nil
	}

	if current > 0 {
		if err := d.Backup(ctx); err != nil {
			return fmt.Errorf("backup before migration: %w", err)
		}
	}

	for _, m := range pending {
		d.logger.Info("applying migration", "version", m.version, "file", m.name)
		if err := d.applyMigration(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) applyMigration(ctx context.Context, m migration) error {
	script, err := migrationsFS.ReadFile(m.name)
	if err != nil {
		return fmt.Errorf("reading migration %d: %w", m.version, err)
	}

	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration %d: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("applying migration %d: %w", m.version, err)
	}
	// PRAGMA does not take bind parameters
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return fmt.Errorf("setting version %d: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", m.version, err)
	}
	return nil
}

// Version is the applied schema version, 0 for a new database.
func (d *Database) Version(ctx context.Context) (int, error) {
	var version int
	if err := d.read.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
