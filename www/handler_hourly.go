package www

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/helen-go/database"
)

type hourlyValue struct {
	Date  string  `json:"date"`
	Hour  int     `json:"hour"`
	Value float64 `json:"value"`
}

func NewSpotPriceHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := dayOrYesterday(r.URL, time.Now())
		if err != nil {
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}

		rows, err := db.GetSpotPrices(r.Context(), from, to)
		if err != nil {
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		values := make([]hourlyValue, 0, len(rows))
		for _, row := range rows {
			values = append(values, hourlyValue{Date: row.When.Date, Hour: int(row.When.Hour), Value: row.Price})
		}
		writeJSON(logger, w, http.StatusOK, values)
	}
}

func NewConsumptionHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := dayOrYesterday(r.URL, time.Now())
		if err != nil {
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}

		siteID := intOrDefault(r.URL, "site", 0)
		if siteID <= 0 {
			writeError(logger, w, http.StatusBadRequest, errors.New("site is required"))
			return
		}

		rows, err := db.GetConsumption(r.Context(), siteID, from, to)
		if err != nil {
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}

		values := make([]hourlyValue, 0, len(rows))
		for _, row := range rows {
			values = append(values, hourlyValue{Date: row.When.Date, Hour: int(row.When.Hour), Value: row.Value})
		}
		writeJSON(logger, w, http.StatusOK, values)
	}
}
