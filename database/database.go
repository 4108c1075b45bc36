package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/angas/helen-go/hours"
	sqlite "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// Database is the local store of synced hourly data, reports and log
// entries. Reads go through a pool, writes through a single connection.
type Database struct {
	logger *slog.Logger
	read   *sql.DB
	write  *sql.DB
	path   string
	now    func() time.Time
}

// Applied to every new connection.
const connectionPragmas = `
	PRAGMA journal_mode = WAL;
	PRAGMA synchronous = NORMAL;
	PRAGMA temp_store = MEMORY;
	PRAGMA busy_timeout = 5000;
	PRAGMA foreign_keys = ON;
	PRAGMA trusted_schema = OFF;
`

var registerHook sync.Once

func open(path string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)
	db.SetConnMaxIdleTime(time.Minute)
	return db, nil
}

// New opens the database at path and migrates it to the latest schema.
func New(ctx context.Context, path string) (*Database, error) {
	registerHook.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, _ string) error {
			_, err := conn.ExecContext(context.Background(), connectionPragmas, nil)
			return err
		})
	})

	read, err := open(path, 8)
	if err != nil {
		return nil, fmt.Errorf("opening database for reading: %w", err)
	}
	write, err := open(path, 1)
	if err != nil {
		read.Close()
		return nil, fmt.Errorf("opening database for writing: %w", err)
	}

	d := &Database{
		logger: slog.Default().With(slog.String("module", "database")),
		read:   read,
		write:  write,
		path:   path,
		now:    time.Now,
	}

	if err := d.migrate(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return d, nil
}

func (d *Database) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

func (d *Database) Close() {
	d.read.Close()
	d.write.Close()
}

// purgeHourly deletes the rows of a date and hour keyed table older than
// retentionDays.
func (d *Database) purgeHourly(ctx context.Context, table string, retentionDays int) error {
	before := hours.FromTime(d.now().AddDate(0, 0, -retentionDays))
	d.logger.Debug("purging hourly rows", slog.String("table", table), slog.String("before", before.String()))

	res, err := d.write.ExecContext(ctx, `DELETE FROM `+table+`
		WHERE (date = ? AND hour < ?) OR date < ?`,
		before.Date, before.Hour, before.Date)
	if err != nil {
		return fmt.Errorf("purging %s: %w", table, err)
	}
	d.logRowsAffected(res, table)
	return nil
}

func (d *Database) logRowsAffected(res sql.Result, table string) {
	n, err := res.RowsAffected()
	if err != nil {
		d.logger.Warn("rows affected by purge unknown", slog.String("table", table), slog.Any("error", err))
		return
	}
	d.logger.Debug("purged rows", slog.String("table", table), slog.Int64("rows", n))
}
