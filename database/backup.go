package database

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	backupTimeLayout = "20060102_150405"
	backupSuffix     = "_helen.db.zip"
)

type BackupFile struct {
	Name    string    `json:"name"`
	TakenAt time.Time `json:"taken_at"`
	Size    int64     `json:"size"`
}

func (d *Database) backupDir() string {
	return filepath.Join(filepath.Dir(d.path), "backups")
}

// Backup writes a zipped snapshot of the database into the backups directory
// next to the database file.
func (d *Database) Backup(ctx context.Context) error {
	dir := d.backupDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	name := d.now().Format(backupTimeLayout) + backupSuffix
	snapshot := filepath.Join(dir, strings.TrimSuffix(name, ".zip"))
	if _, err := d.write.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return fmt.Errorf("vacuuming database into %q: %w", snapshot, err)
	}
	defer func() {
		if err := os.Remove(snapshot); err != nil && !errors.Is(err, fs.ErrNotExist) {
			d.logger.Warn("removing uncompressed snapshot failed", slog.Any("error", err))
		}
	}()

	zipPath := filepath.Join(dir, name)
	if err := zipSingleFile(snapshot, zipPath, filepath.Base(d.path)); err != nil {
		os.Remove(zipPath)
		return err
	}

	d.logger.Info("database backup complete", slog.String("filename", zipPath))
	return nil
}

// zipSingleFile compresses src into a new archive at dst holding one entry
// called entryName.
func zipSingleFile(src, dst, entryName string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("reading snapshot info: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating zip file: %w", err)
	}
	defer out.Close()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("creating zip header: %w", err)
	}
	header.Name = entryName
	header.Method = zip.Deflate

	zw := zip.NewWriter(out)
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("creating zip entry: %w", err)
	}
	if _, err := io.Copy(entry, in); err != nil {
		return fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing zip file: %w", err)
	}
	return out.Close()
}

// Backups lists the backup archives, newest first. A missing backups
// directory means there are none.
func (d *Database) Backups() ([]BackupFile, error) {
	entries, err := os.ReadDir(d.backupDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []BackupFile
	for _, e := range entries {
		stamp, ok := strings.CutSuffix(e.Name(), backupSuffix)
		if !ok || e.IsDir() {
			continue
		}
		taken, err := time.ParseInLocation(backupTimeLayout, stamp, time.Local)
		if err != nil {
			d.logger.Debug("skipping file with unexpected name", slog.String("filename", e.Name()))
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		backups = append(backups, BackupFile{Name: e.Name(), TakenAt: taken, Size: size})
	}

	slices.SortFunc(backups, func(a, b BackupFile) int { return b.TakenAt.Compare(a.TakenAt) })
	return backups, nil
}

// PurgeBackups removes archives older than retentionDays. Zero or less keeps
// everything.
func (d *Database) PurgeBackups(ctx context.Context, retentionDays int) error {
	if retentionDays < 1 {
		return nil
	}

	backups, err := d.Backups()
	if err != nil {
		return err
	}

	cutoff := d.now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, b := range backups {
		if !b.TakenAt.Before(cutoff) {
			continue
		}
		path := filepath.Join(d.backupDir(), b.Name)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing old backup %q: %w", path, err)
		}
		removed++
	}

	d.logger.Info("backup purge complete", slog.Int("removed", removed), slog.Int("kept", len(backups)-removed))
	return nil
}
