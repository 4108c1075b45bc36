package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/angas/helen-go/config"
	"github.com/angas/helen-go/database"
)

type maintenanceStep struct {
	name string
	run  func(ctx context.Context) error
}

// NewMaintenanceTask backs up the database and purges data past its
// retention. A failing step does not stop the following ones.
func NewMaintenanceTask(logger *slog.Logger, db *database.Database, cnfg func() *config.AppConfig) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		c := cnfg()
		dataDays := c.Database.GetDataRetentionDays()
		steps := []maintenanceStep{
			{"backup", db.Backup},
			{"purge backups", func(ctx context.Context) error { return db.PurgeBackups(ctx, c.Database.GetBackupRetentionDays()) }},
			{"purge log", func(ctx context.Context) error { return db.PurgeLog(ctx, c.Logging.GetDbMaxEntries()) }},
			{"purge spot prices", func(ctx context.Context) error { return db.PurgeSpotPrices(ctx, dataDays) }},
			{"purge consumption", func(ctx context.Context) error { return db.PurgeConsumption(ctx, dataDays) }},
			{"purge reports", func(ctx context.Context) error { return db.PurgeReports(ctx, dataDays) }},
		}

		failed := 0
		for _, step := range steps {
			if err := step.run(ctx); err != nil {
				failed++
				logger.Error("maintenance step failed", slog.String("step", step.name), slog.Any("error", err))
			}
		}

		logger.Info("maintenance task done", slog.Int("steps", len(steps)), slog.Int("failed", failed))
	}
}
