package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/angas/helen-go/database"
	"github.com/angas/helen-go/helen"
	"github.com/angas/helen-go/hours"
)

// NewSyncTask stores yesterday's hourly spot prices and consumption.
func NewSyncTask(logger *slog.Logger, access *helenAccess, db *database.Database, now func() time.Time) func() {
	return func() {
		logger.Debug("running sync task...")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		day := hours.Yesterday(now())

		var prices helen.SpotPricesResponse
		var measurements helen.MeasurementResponse
		var deliverySiteID int
		err := access.do(ctx, func(c HelenClient, siteID int) error {
			var err error
			if siteID == 0 {
				if siteID, err = c.LatestActiveDeliverySiteID(ctx); err != nil {
					return err
				}
			}
			deliverySiteID = siteID
			if prices, err = c.HourlySpotPrices(ctx, day, day, siteID); err != nil {
				return err
			}
			measurements, err = c.HourlyMeasurements(ctx, day, day, siteID)
			return err
		})
		if err != nil {
			logger.Error("sync task error, fetching hourly data", slog.Any("error", err))
			return
		}

		first := firstHour(day)

		priceRows := spotPriceRows(prices.Interval, first)
		if err := db.SaveSpotPrices(ctx, priceRows); err != nil {
			logger.Error("sync task error, saving spot prices", slog.Any("error", err))
		}

		consumptionRows := consumptionRows(measurements.Electricity(), first, deliverySiteID)
		if err := db.SaveConsumption(ctx, consumptionRows); err != nil {
			logger.Error("sync task error, saving consumption", slog.Any("error", err))
		}

		logger.Info("sync task done",
			slog.String("day", day.Format(time.DateOnly)),
			slog.Int("prices", len(priceRows)),
			slog.Int("consumption", len(consumptionRows)))
	}
}

// firstHour is the hour the day's window begins with.
func firstHour(day time.Time) hours.DateHour {
	return hours.FromTime(hours.FromIso(hours.DayWindow(day, day).Begin))
}

// intervalStart prefers the start reported by the API over the requested one.
func intervalStart(interval *helen.MeasurementInterval, fallback hours.DateHour) hours.DateHour {
	if interval != nil {
		if start := hours.FromTime(hours.FromIso(interval.Start)); !start.IsZero() {
			return start
		}
	}
	return fallback
}

func spotPriceRows(interval *helen.MeasurementInterval, first hours.DateHour) []database.SpotPriceRow {
	start := intervalStart(interval, first)
	var rows []database.SpotPriceRow
	for i, r := range interval.Readings() {
		if !r.Valid() {
			continue
		}
		rows = append(rows, database.SpotPriceRow{When: start.Add(i), Price: r.Value})
	}
	return rows
}

func consumptionRows(interval *helen.MeasurementInterval, first hours.DateHour, siteID int) []database.ConsumptionRow {
	start := intervalStart(interval, first)
	var rows []database.ConsumptionRow
	for i, r := range interval.Readings() {
		if !r.Valid() {
			continue
		}
		rows = append(rows, database.ConsumptionRow{When: start.Add(i), DeliverySiteID: siteID, Value: r.Value})
	}
	return rows
}
