package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/helen-go/database"
	"github.com/angas/helen-go/logging"
)

type logEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Attrs     string    `json:"attrs,omitempty"`
}

func NewLogHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := database.LogQuery{
			MinLevel: slog.LevelDebug,
			Contains: r.URL.Query().Get("q"),
			Page:     intOrDefault(r.URL, "page", 1),
			PageSize: intOrDefault(r.URL, "pageSize", 25),
		}
		if lvl := r.URL.Query().Get("level"); lvl != "" {
			q.MinLevel = logging.LevelFromString(&lvl)
		}

		rows, err := db.GetLogEntries(r.Context(), q)
		if err != nil {
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		entries := make([]logEntry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, logEntry{
				Timestamp: row.Timestamp,
				Level:     slog.Level(row.Level).String(),
				Message:   row.Message,
				Attrs:     row.Attrs,
			})
		}
		writeJSON(logger, w, http.StatusOK, entries)
	}
}
