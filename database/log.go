package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type LogEntryRow struct {
	Timestamp time.Time
	Level     int
	Message   string
	Attrs     string
}

// LogQuery selects a page of log entries, newest first.
type LogQuery struct {
	MinLevel slog.Level
	Contains string // substring of the message, case insensitive
	Page     int    // 1-based, default 1
	PageSize int    // default 25
}

func (d *Database) SaveLogEntry(ctx context.Context, r LogEntryRow) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO log (timestamp, level, message, attrs) VALUES (?, ?, ?, ?)`,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.Level,
		r.Message,
		r.Attrs)
	if err != nil {
		return fmt.Errorf("saving log entry: %w", err)
	}
	return nil
}

func (d *Database) GetLogEntries(ctx context.Context, q LogQuery) ([]LogEntryRow, error) {
	page := max(q.Page, 1)
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 25
	}

	query := `SELECT timestamp, level, message, attrs FROM log WHERE level >= ?`
	args := []any{int(q.MinLevel)}
	if q.Contains != "" {
		query += ` AND message LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(q.Contains)+"%")
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := d.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching log entries: %w", err)
	}
	defer rows.Close()

	var entries []LogEntryRow
	for rows.Next() {
		var r LogEntryRow
		var ts string
		if err := rows.Scan(&ts, &r.Level, &r.Message, &r.Attrs); err != nil {
			return nil, fmt.Errorf("scanning log row: %w", err)
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parsing log timestamp %q: %w", ts, err)
		}
		entries = append(entries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading log rows: %w", err)
	}
	return entries, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// PurgeLog keeps the newest maxEntries entries.
func (d *Database) PurgeLog(ctx context.Context, maxEntries int) error {
	res, err := d.write.ExecContext(ctx, `
		DELETE FROM log WHERE id <= (SELECT id FROM log ORDER BY id DESC LIMIT 1 OFFSET ?)`,
		maxEntries)
	if err != nil {
		return fmt.Errorf("purging log: %w", err)
	}
	d.logRowsAffected(res, "log")
	return nil
}
