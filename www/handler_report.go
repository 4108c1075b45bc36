package www

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/angas/helen-go/database"
)

func NewLatestReportHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := intOrDefault(r.URL, "site", 0)

		report, err := db.GetLatestReport(r.Context(), siteID)
		if errors.Is(err, database.ErrNotFound) {
			writeError(logger, w, http.StatusNotFound, errors.New("no report yet"))
			return
		}
		if err != nil {
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, report)
	}
}

func NewReportsHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := db.GetReports(r.Context(), intOrDefault(r.URL, "limit", 30))
		if err != nil {
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, reports)
	}
}

// NewRefreshReportHandler starts the report task in the background. The new
// report reaches websocket clients once it is done.
func NewRefreshReportHandler(logger *slog.Logger, refresh func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if refresh == nil {
			writeError(logger, w, http.StatusServiceUnavailable, errors.New("report task is not running"))
			return
		}

		go refresh()
		w.WriteHeader(http.StatusAccepted)
	}
}
