package logging

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/angas/helen-go/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		in   *string
		want slog.Level
	}{
		{nil, slog.LevelInfo},
		{str("debug"), slog.LevelDebug},
		{str("INFO"), slog.LevelInfo},
		{str("Warn"), slog.LevelWarn},
		{str("warning"), slog.LevelWarn},
		{str("error"), slog.LevelError},
		{str("verbose"), slog.LevelInfo},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.in != nil {
			name = *tt.in
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromString(tt.in))
		})
	}
}

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "helen.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestSQLiteHandler(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	logger := slog.New(NewSQLiteHandler(db, slog.LevelInfo, LogAttrFormatJSON)).With("module", "helen")
	logger.Debug("not stored")
	logger.WithGroup("req").Warn("slow request", slog.Int("status", 200))

	entries, err := db.GetLogEntries(ctx, database.LogQuery{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "slow request", entries[0].Message)
	assert.Equal(t, int(slog.LevelWarn), entries[0].Level)
	assert.JSONEq(t, `[{"module": "helen"}, {"req.status": "200"}]`, entries[0].Attrs)
}

func TestSQLiteHandlerTextAttrs(t *testing.T) {
	db := newTestDB(t)

	logger := slog.New(NewSQLiteHandler(db, slog.LevelDebug, LogAttrFormatText))
	logger.Info("login", slog.String("step", "a=b;c"), slog.Int("n", 1))
	logger.Info("no attributes")

	entries, err := db.GetLogEntries(context.Background(), database.LogQuery{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "", entries[0].Attrs)
	assert.Equal(t, `step=a\=b\;c; n=1`, entries[1].Attrs)
}

func TestMultiHandler(t *testing.T) {
	var debug, warn bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With("module", "test")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("details")
	logger.Error("failure")

	assert.Contains(t, debug.String(), "msg=details module=test")
	assert.Contains(t, debug.String(), "msg=failure")
	assert.NotContains(t, warn.String(), "details")
	assert.Contains(t, warn.String(), "msg=failure module=test")
}

func TestMultiHandlerDisabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
}

func TestConsoleHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, slog.LevelWarn))

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
