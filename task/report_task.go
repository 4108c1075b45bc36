package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/angas/helen-go/database"
	"github.com/angas/helen-go/hours"
	"github.com/angas/helen-go/types"
)

// NewReportTask calculates the month to date report, stores it and hands it
// over to every sink.
func NewReportTask(
	logger *slog.Logger,
	access *helenAccess,
	db *database.Database,
	sinks func() []types.ReportSink,
	now func() time.Time) func() {

	return func() {
		logger.Debug("running report task...")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		start, end := hours.MonthToDate(now())

		var report types.Report
		err := access.do(ctx, func(c HelenClient, siteID int) error {
			var err error
			report, err = c.Report(ctx, start, end, siteID)
			return err
		})
		if err != nil {
			logger.Error("report task error, fetching report", slog.Any("error", err))
			return
		}

		if err := db.SaveReport(ctx, report); err != nil {
			logger.Error("report task error, saving report", slog.Any("error", err))
		}

		for _, sink := range sinks() {
			if err := sink.PublishReport(ctx, report); err != nil {
				logger.Error("report task error, publishing report", slog.Any("error", err))
			}
		}

		logger.Info("report task done",
			slog.String("start", start.Format(time.DateOnly)),
			slog.String("end", end.Format(time.DateOnly)),
			slog.Float64("consumption", report.Consumption),
			slog.Float64("spotCost", report.SpotCost),
			slog.Float64("usageImpact", report.UsageImpact))
	}
}

// needImmediateReport is true when no report has been made today.
func needImmediateReport(ctx context.Context, db *database.Database, now time.Time) bool {
	latest, err := db.GetLatestReport(ctx, 0)
	if errors.Is(err, database.ErrNotFound) {
		return true
	}
	if err != nil {
		return false
	}
	today := hours.LocationHelsinki(now).Format(time.DateOnly)
	return hours.LocationHelsinki(latest.CreatedAt).Format(time.DateOnly) != today
}
