package www

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/helen-go/config"
	"github.com/angas/helen-go/database"
	"github.com/angas/helen-go/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	logger *slog.Logger
	config config.AppConfigApi
	db     *database.Database
	hub    *Hub
	mux    *http.ServeMux
}

// NewServer sets up the JSON API. refresh runs the report task, it is
// triggered by POST /api/report and may be nil.
func NewServer(
	db *database.Database,
	refresh func(),
	gatherer prometheus.Gatherer,
	config config.AppConfigApi,
	sysInfo SysInfo) *Server {

	logger := slog.Default().With("module", "www")
	s := &Server{
		logger: logger,
		config: config,
		db:     db,
		hub:    NewHub(logger),
		mux:    http.NewServeMux(),
	}

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	s.mux.Handle("GET /api/report", logReqMW(NewLatestReportHandler(
		logger.With(slog.String("handler", "report")), db)))

	s.mux.Handle("POST /api/report", logReqMW(NewRefreshReportHandler(
		logger.With(slog.String("handler", "report")), refresh)))

	s.mux.Handle("GET /api/reports", logReqMW(NewReportsHandler(
		logger.With(slog.String("handler", "reports")), db)))

	s.mux.Handle("GET /api/spot_prices", logReqMW(NewSpotPriceHandler(
		logger.With(slog.String("handler", "spot_prices")), db)))

	s.mux.Handle("GET /api/consumption", logReqMW(NewConsumptionHandler(
		logger.With(slog.String("handler", "consumption")), db)))

	s.mux.Handle("GET /api/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")), db)))

	s.mux.Handle("GET /api/backups", logReqMW(NewBackupsHandler(
		logger.With(slog.String("handler", "backups")), db)))

	s.mux.Handle("GET /api/sys_info", logReqMW(NewSysInfoHandler(
		logger.With(slog.String("handler", "sys_info")), sysInfo)))

	if gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		if !s.hub.register(client) {
			client.conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// PublishReport pushes the report to every websocket client.
func (s *Server) PublishReport(ctx context.Context, r types.Report) error {
	msg, err := json.Marshal(struct {
		Type   string       `json:"type"`
		Report types.Report `json:"report"`
	}{Type: "report", Report: r})
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	select {
	case s.hub.Broadcast <- msg:
		return nil
	case <-s.hub.done:
		return errors.New("websocket hub is stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.logger.Info("starting server...", "port", s.config.Port)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Address, s.config.Port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.hub.Run(ctx)

	srvErrors := make(chan error, 1)
	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", slog.Any("error", err))
		}

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", slog.Any("error", err))
		}
	}
}
