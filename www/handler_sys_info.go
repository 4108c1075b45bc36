package www

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"
)

type SysInfo struct {
	Version   string    `json:"version"`
	GoVersion string    `json:"go_version"`
	StartedAt time.Time `json:"started_at"`
	DbVersion int       `json:"db_version"`
}

func NewSysInfo(version string, dbVersion int) SysInfo {
	return SysInfo{
		Version:   version,
		GoVersion: runtime.Version(),
		StartedAt: time.Now(),
		DbVersion: dbVersion,
	}
}

func NewSysInfoHandler(logger *slog.Logger, sysInfo SysInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, http.StatusOK, struct {
			SysInfo
			Uptime string `json:"uptime"`
		}{
			SysInfo: sysInfo,
			Uptime:  time.Since(sysInfo.StartedAt).Truncate(time.Second).String(),
		})
	}
}
