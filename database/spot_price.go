package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angas/helen-go/convert"
	"github.com/angas/helen-go/hours"
)

type SpotPriceRow struct {
	When  hours.DateHour
	Price float64 // c/kWh excluding margin and tax
}

func (d *Database) SaveSpotPrices(ctx context.Context, rows []SpotPriceRow) error {
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving spot prices: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO spot_price (date, hour, price) VALUES (?, ?, ?)
			ON CONFLICT(date, hour) DO UPDATE SET price = excluded.price`,
			row.When.Date,
			row.When.Hour,
			convert.RoundFloat64(row.Price, 4))
		if err != nil {
			return fmt.Errorf("saving spot price for %s: %w", row.When, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving spot prices: %w", err)
	}
	d.logger.Debug("saved spot prices", slog.Int("count", len(rows)))
	return nil
}

// GetSpotPrices returns the prices of the hours from..to inclusive, in order.
func (d *Database) GetSpotPrices(ctx context.Context, from, to hours.DateHour) ([]SpotPriceRow, error) {
	rows, err := d.read.QueryContext(ctx, `SELECT
		date, hour, price
		FROM spot_price
		WHERE ((date = ? AND hour >= ?) OR date > ?)
		AND ((date = ? AND hour <= ?) OR date < ?)
		ORDER BY date, hour ASC`,
		from.Date, from.Hour, from.Date,
		to.Date, to.Hour, to.Date)
	if err != nil {
		return nil, fmt.Errorf("fetching spot prices: %w", err)
	}
	defer rows.Close()

	var prices []SpotPriceRow
	for rows.Next() {
		var sp SpotPriceRow
		if err := rows.Scan(&sp.When.Date, &sp.When.Hour, &sp.Price); err != nil {
			return nil, fmt.Errorf("scanning spot price row: %w", err)
		}
		prices = append(prices, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading spot price rows: %w", err)
	}

	return prices, nil
}

func (d *Database) PurgeSpotPrices(ctx context.Context, retentionDays int) error {
	return d.purgeHourly(ctx, "spot_price", retentionDays)
}
