package www

import (
	"log/slog"
	"net/http"

	"github.com/angas/helen-go/database"
)

func NewBackupsHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		backups, err := db.Backups()
		if err != nil {
			writeError(logger, w, http.StatusInternalServerError, err)
			return
		}
		if backups == nil {
			backups = []database.BackupFile{}
		}
		writeJSON(logger, w, http.StatusOK, backups)
	}
}
