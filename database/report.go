package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/angas/helen-go/convert"
	"github.com/angas/helen-go/types"
)

func (d *Database) SaveReport(ctx context.Context, r types.Report) error {
	d.logger.Debug("saving report",
		"id", r.ID,
		"delivery_site_id", r.DeliverySiteID,
		"start", r.Start.Format(time.DateOnly),
		"end", r.End.Format(time.DateOnly),
		"consumption", r.Consumption,
		"spot_cost", r.SpotCost,
		"transfer_fees", r.TransferFees,
		"usage_impact", r.UsageImpact)

	_, err := d.write.ExecContext(ctx, `
		INSERT INTO report (
			id,
			delivery_site_id,
			start_date,
			end_date,
			consumption,
			spot_cost,
			transfer_fees,
			usage_impact,
			contract_base_price,
			energy_unit_price,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.DeliverySiteID,
		r.Start.Format(time.DateOnly),
		r.End.Format(time.DateOnly),
		convert.RoundFloat64(r.Consumption, 3),
		convert.RoundFloat64(r.SpotCost, 4),
		convert.RoundFloat64(r.TransferFees, 4),
		convert.RoundFloat64(r.UsageImpact, 4),
		convert.RoundFloat64(r.ContractBasePrice, 4),
		convert.RoundFloat64(r.EnergyUnitPrice, 4),
		r.CreatedAt.UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}

	return nil
}

const reportColumns = `id, delivery_site_id, start_date, end_date, consumption, spot_cost,
	transfer_fees, usage_impact, contract_base_price, energy_unit_price, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (types.Report, error) {
	var r types.Report
	var start, end, created string
	err := s.Scan(&r.ID, &r.DeliverySiteID, &start, &end, &r.Consumption, &r.SpotCost,
		&r.TransferFees, &r.UsageImpact, &r.ContractBasePrice, &r.EnergyUnitPrice, &created)
	if err != nil {
		return r, err
	}
	if r.Start, err = time.Parse(time.DateOnly, start); err != nil {
		return r, fmt.Errorf("parsing start date: %w", err)
	}
	if r.End, err = time.Parse(time.DateOnly, end); err != nil {
		return r, fmt.Errorf("parsing end date: %w", err)
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return r, fmt.Errorf("parsing created timestamp: %w", err)
	}
	return r, nil
}

// GetLatestReport returns the newest report of the delivery site, or
// ErrNotFound. A siteID of 0 matches any site.
func (d *Database) GetLatestReport(ctx context.Context, siteID int) (types.Report, error) {
	row := d.read.QueryRowContext(ctx, `SELECT `+reportColumns+`
		FROM report
		WHERE ? = 0 OR delivery_site_id = ?
		ORDER BY created_at DESC
		LIMIT 1`,
		siteID, siteID)

	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("fetching latest report: %w", err)
	}
	return r, nil
}

// GetReports returns up to limit reports, newest first.
func (d *Database) GetReports(ctx context.Context, limit int) ([]types.Report, error) {
	if limit < 1 {
		limit = 30
	}

	rows, err := d.read.QueryContext(ctx, `SELECT `+reportColumns+`
		FROM report
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching reports: %w", err)
	}
	defer rows.Close()

	var reports []types.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading report rows: %w", err)
	}

	return reports, nil
}

func (d *Database) PurgeReports(ctx context.Context, retentionDays int) error {
	d.logger.Debug("purging table report")
	before := d.now().Add(-24 * time.Hour * time.Duration(retentionDays)).UTC().Format(time.RFC3339)
	res, err := d.write.ExecContext(ctx, `DELETE FROM report WHERE created_at < ?`, before)
	if err != nil {
		return fmt.Errorf("error when purging report: %w", err)
	}
	d.logRowsAffected(res, "report")
	return nil
}
