package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/angas/helen-go/config"
	"github.com/angas/helen-go/database"
	"github.com/angas/helen-go/types"
	"github.com/robfig/cron/v3"
)

type Tasks struct {
	cron   *cron.Cron
	logger *slog.Logger
	db     *database.Database
	access *helenAccess

	mu    sync.RWMutex
	cnfg  *config.AppConfig
	sinks []types.ReportSink

	ReportTask      func()
	SyncTask        func()
	MaintenanceTask func()
}

func NewTasks(db *database.Database, client HelenClient, cnfg *config.AppConfig) *Tasks {
	logger := slog.Default().With("module", "tasks")
	t := &Tasks{
		cron:   cron.New(),
		logger: logger,
		db:     db,
		access: newHelenAccess(logger.With(slog.String("task", "helen")), client, cnfg.Helen),
		cnfg:   cnfg,
	}
	t.ReportTask = NewReportTask(logger.With(slog.String("task", "report")), t.access, db, t.Sinks, time.Now)
	t.SyncTask = NewSyncTask(logger.With(slog.String("task", "sync")), t.access, db, time.Now)
	t.MaintenanceTask = NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, t.config)
	return t
}

// AddSink registers a receiver of every new report.
func (t *Tasks) AddSink(sink types.ReportSink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sinks = append(t.sinks, sink)
}

func (t *Tasks) Sinks() []types.ReportSink {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]types.ReportSink(nil), t.sinks...)
}

func (t *Tasks) config() *config.AppConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cnfg
}

// ApplyConfig takes a reloaded configuration into use. Schedules are only
// read on Run and need a restart to change.
func (t *Tasks) ApplyConfig(cnfg *config.AppConfig) {
	t.mu.Lock()
	prev := t.cnfg
	t.cnfg = cnfg
	t.mu.Unlock()

	if prev.Report.GetRunAt() != cnfg.Report.GetRunAt() || prev.Report.GetSyncAt() != cnfg.Report.GetSyncAt() {
		t.logger.Warn("task schedules changed, restart to apply")
	}
	t.access.apply(cnfg.Helen)
}

func (t *Tasks) Run() {
	cnfg := t.config()
	_, err := t.cron.AddFunc(cnfg.Report.GetRunAt(), t.ReportTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc(cnfg.Report.GetSyncAt(), t.SyncTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc("30 2 * * *", t.MaintenanceTask)
	if err != nil {
		panic(err)
	}
	t.cron.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if needImmediateReport(ctx, t.db, time.Now()) {
		t.logger.Info("no report made today, running report task now")
		go t.ReportTask()
	}
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
