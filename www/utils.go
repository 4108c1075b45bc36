package www

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/angas/helen-go/hours"
)

func intOrDefault(u *url.URL, key string, defaultValue int) int {
	if v := u.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

// dayOrYesterday reads the date query parameter as the first and last stored
// hour of that provider day, defaulting to yesterday.
func dayOrYesterday(u *url.URL, now time.Time) (hours.DateHour, hours.DateHour, error) {
	day := hours.Yesterday(now)
	if date := u.Query().Get("date"); date != "" {
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return hours.DateHour{}, hours.DateHour{}, fmt.Errorf("invalid date %q", date)
		}
		day = parsed
	}
	w := hours.DayWindow(day, day)
	return hours.FromTime(hours.FromIso(w.Begin)), hours.FromTime(hours.FromIso(w.End)), nil
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response", slog.Any("error", err))
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("handling request", slog.Any("error", err))
	}
	writeJSON(logger, w, status, struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}
