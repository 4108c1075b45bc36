package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angas/helen-go/convert"
	"github.com/angas/helen-go/hours"
)

type ConsumptionRow struct {
	When           hours.DateHour
	DeliverySiteID int
	Value          float64 // kWh
}

func (d *Database) SaveConsumption(ctx context.Context, rows []ConsumptionRow) error {
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving consumption: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO consumption (date, hour, delivery_site_id, value) VALUES (?, ?, ?, ?)
			ON CONFLICT(date, hour, delivery_site_id) DO UPDATE SET value = excluded.value`,
			row.When.Date,
			row.When.Hour,
			row.DeliverySiteID,
			convert.RoundFloat64(row.Value, 3))
		if err != nil {
			return fmt.Errorf("saving consumption for %s: %w", row.When, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving consumption: %w", err)
	}
	d.logger.Debug("saved consumption", slog.Int("count", len(rows)))
	return nil
}

// GetConsumption returns the consumption of the site for the hours from..to
// inclusive, in order.
func (d *Database) GetConsumption(ctx context.Context, siteID int, from, to hours.DateHour) ([]ConsumptionRow, error) {
	rows, err := d.read.QueryContext(ctx, `SELECT
		date, hour, delivery_site_id, value
		FROM consumption
		WHERE delivery_site_id = ?
		AND ((date = ? AND hour >= ?) OR date > ?)
		AND ((date = ? AND hour <= ?) OR date < ?)
		ORDER BY date, hour ASC`,
		siteID,
		from.Date, from.Hour, from.Date,
		to.Date, to.Hour, to.Date)
	if err != nil {
		return nil, fmt.Errorf("fetching consumption: %w", err)
	}
	defer rows.Close()

	var result []ConsumptionRow
	for rows.Next() {
		var c ConsumptionRow
		if err := rows.Scan(&c.When.Date, &c.When.Hour, &c.DeliverySiteID, &c.Value); err != nil {
			return nil, fmt.Errorf("scanning consumption row: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading consumption rows: %w", err)
	}

	return result, nil
}

func (d *Database) PurgeConsumption(ctx context.Context, retentionDays int) error {
	return d.purgeHourly(ctx, "consumption", retentionDays)
}
