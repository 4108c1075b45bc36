package database

import (
	"archive/zip"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angas/helen-go/hours"
	"github.com/angas/helen-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "helen.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helen.db")
	ctx := context.Background()

	db, err := New(ctx, path)
	require.NoError(t, err)
	ver, err := db.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ver)
	db.Close()

	// reopening applies nothing
	db, err = New(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	ver, err = db.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ver)
}

func TestSpotPrices(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rows := []SpotPriceRow{
		{When: hours.DateHour{Date: "2024-06-01", Hour: 22}, Price: 3.12345},
		{When: hours.DateHour{Date: "2024-06-01", Hour: 23}, Price: 2.5},
		{When: hours.DateHour{Date: "2024-06-02", Hour: 0}, Price: -0.1},
		{When: hours.DateHour{Date: "2024-06-02", Hour: 1}, Price: 1.0},
	}
	require.NoError(t, db.SaveSpotPrices(ctx, rows))

	// upsert
	require.NoError(t, db.SaveSpotPrices(ctx, []SpotPriceRow{{When: rows[1].When, Price: 4.0}}))

	got, err := db.GetSpotPrices(ctx, rows[1].When, rows[2].When)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, SpotPriceRow{When: rows[1].When, Price: 4.0}, got[0])
	assert.Equal(t, SpotPriceRow{When: rows[2].When, Price: -0.1}, got[1])

	got, err = db.GetSpotPrices(ctx, rows[0].When, rows[3].When)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, 3.1235, got[0].Price)
}

func TestConsumption(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	from := hours.DateHour{Date: "2024-06-01", Hour: 22}

	var rows []ConsumptionRow
	for i := range 4 {
		rows = append(rows, ConsumptionRow{When: from.Add(i), DeliverySiteID: 1, Value: float64(i) + 0.5})
	}
	rows = append(rows, ConsumptionRow{When: from, DeliverySiteID: 2, Value: 9})
	require.NoError(t, db.SaveConsumption(ctx, rows))

	got, err := db.GetConsumption(ctx, 1, from, from.Add(3))
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "2024-06-02", got[2].When.Date)
	assert.Equal(t, uint8(0), got[2].When.Hour)
	assert.Equal(t, 2.5, got[2].Value)

	got, err = db.GetConsumption(ctx, 2, from, from.Add(3))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9.0, got[0].Value)
}

func TestPurgeHourly(t *testing.T) {
	db := newTestDB(t)
	db.now = func() time.Time { return time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	require.NoError(t, db.SaveSpotPrices(ctx, []SpotPriceRow{
		{When: hours.DateHour{Date: "2024-05-31", Hour: 11}, Price: 1},
		{When: hours.DateHour{Date: "2024-05-31", Hour: 12}, Price: 2},
		{When: hours.DateHour{Date: "2024-06-15", Hour: 0}, Price: 3},
	}))
	require.NoError(t, db.PurgeSpotPrices(ctx, 30))

	got, err := db.GetSpotPrices(ctx, hours.DateHour{Date: "2024-01-01"}, hours.DateHour{Date: "2024-12-31", Hour: 23})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Price)
}

func testReport(id string, siteID int, created time.Time) types.Report {
	return types.Report{
		ID:                id,
		DeliverySiteID:    siteID,
		Start:             time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		End:               time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		Consumption:       123.456,
		SpotCost:          12.3456,
		TransferFees:      8.5,
		UsageImpact:       -0.4321,
		ContractBasePrice: 4.9,
		EnergyUnitPrice:   0,
		CreatedAt:         created,
	}
}

func TestReports(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetLatestReport(ctx, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	t1 := time.Date(2024, time.June, 15, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	require.NoError(t, db.SaveReport(ctx, testReport("a", 1, t1)))
	require.NoError(t, db.SaveReport(ctx, testReport("b", 2, t2)))

	latest, err := db.GetLatestReport(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, testReport("b", 2, t2), latest)

	latest, err = db.GetLatestReport(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", latest.ID)

	_, err = db.GetLatestReport(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := db.GetReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)

	db.now = func() time.Time { return t2.Add(24 * time.Hour) }
	require.NoError(t, db.PurgeReports(ctx, 1))
	all, err = db.GetReports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].ID)
}

func TestLog(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	ts := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	for i, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		require.NoError(t, db.SaveLogEntry(ctx, LogEntryRow{
			Timestamp: ts.Add(time.Duration(i) * time.Second),
			Level:     int(lvl),
			Message:   lvl.String(),
		}))
	}

	entries, err := db.GetLogEntries(ctx, LogQuery{MinLevel: slog.LevelWarn})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ERROR", entries[0].Message)
	assert.Equal(t, ts.Add(3*time.Second), entries[0].Timestamp)

	entries, err = db.GetLogEntries(ctx, LogQuery{Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "DEBUG", entries[0].Message)

	entries, err = db.GetLogEntries(ctx, LogQuery{Contains: "inf"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0].Message)

	require.NoError(t, db.SaveLogEntry(ctx, LogEntryRow{Timestamp: ts, Message: "100% done"}))
	entries, err = db.GetLogEntries(ctx, LogQuery{Contains: "0%"})
	require.NoError(t, err)
	require.Len(t, entries, 1, "wildcards in the search are literal")

	require.NoError(t, db.PurgeLog(ctx, 1))
	entries, err = db.GetLogEntries(ctx, LogQuery{MinLevel: slog.LevelDebug})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "100% done", entries[0].Message)
}

func TestBackup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Date(2024, time.June, 1, 3, 0, 0, 0, time.Local)
	db.now = func() time.Time { return now }
	require.NoError(t, db.Backup(ctx))
	now = now.AddDate(0, 0, 3)
	require.NoError(t, db.Backup(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(db.backupDir(), "notes.txt"), []byte("x"), 0o600))

	backups, err := db.Backups()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "20240604_030000_helen.db.zip", backups[0].Name)
	assert.Equal(t, "20240601_030000_helen.db.zip", backups[1].Name)
	assert.Positive(t, backups[0].Size)

	zr, err := zip.OpenReader(filepath.Join(db.backupDir(), backups[0].Name))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "helen.db", zr.File[0].Name)
	require.NoError(t, zr.Close())

	_, err = os.Stat(filepath.Join(db.backupDir(), "20240604_030000_helen.db"))
	assert.ErrorIs(t, err, fs.ErrNotExist, "uncompressed snapshot is removed")

	now = now.AddDate(0, 0, 5)
	require.NoError(t, db.PurgeBackups(ctx, 6))
	backups, err = db.Backups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "20240604_030000_helen.db.zip", backups[0].Name)

	_, err = os.Stat(filepath.Join(db.backupDir(), "notes.txt"))
	assert.NoError(t, err, "unrelated files are kept")
}

func TestPurgeBackupsWithoutDirectory(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.PurgeBackups(context.Background(), 5))

	backups, err := db.Backups()
	assert.NoError(t, err)
	assert.Empty(t, backups)
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].version)
	assert.Equal(t, "migrations/001_init.sql", migrations[0].name)
}
