package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/angas/helen-go/config"
	"github.com/angas/helen-go/database"
	"github.com/angas/helen-go/helen"
	"github.com/angas/helen-go/logging"
	"github.com/angas/helen-go/mqtt"
	"github.com/angas/helen-go/task"
	"github.com/angas/helen-go/www"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := logging.NewConsoleHandler(os.Stdout, cnfg.Logging.GetConsoleLevel())
	slog.New(consoleHandler).Debug("helen is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := helen.NewMetrics(reg)
	if err != nil {
		panic(fmt.Sprintf("failed to register metrics: %v", err))
	}

	client := helen.NewClient(cnfg.Helen.ClientConfig(), helen.WithMetrics(metrics))
	defer client.Close()

	tasks := task.NewTasks(db, client, cnfg)

	if cnfg.Mqtt.Enabled() {
		publisher := mqtt.New(
			cnfg.Mqtt.Broker,
			cnfg.Mqtt.Port,
			cnfg.Mqtt.Username,
			cnfg.Mqtt.Password,
			cnfg.Mqtt.GetTopicPrefix())

		if isDevMode() {
			logger.Info("dev mode, skipping mqtt connection")
		} else {
			if err := publisher.Connect(); err != nil {
				panic(fmt.Sprintf("mqtt connection error: %v", err))
			}
			defer publisher.Disconnect()
			tasks.AddSink(publisher)
		}
	}

	dbVersion, err := db.Version(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to read database version: %v", err))
	}

	server := www.NewServer(db, tasks.ReportTask, reg, cnfg.Api, www.NewSysInfo(Version, dbVersion))
	tasks.AddSink(server)

	cnfg.Watch(tasks.ApplyConfig)

	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		tasks.Run()
		defer tasks.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server.Run(ctx)
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	if syncer, ok := logger.Handler().(interface{ Sync() error }); ok {
		if syncErr := syncer.Sync(); syncErr != nil {
			logger.Error("failed to flush logger", slog.Any("error", syncErr))
		}
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
