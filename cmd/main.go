package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/device-monitor/internal/auth"
	"github.com/ukydev/device-monitor/internal/config"
	"github.com/ukydev/device-monitor/internal/db"
	"github.com/ukydev/device-monitor/internal/device"
	"github.com/ukydev/device-monitor/internal/handlers"
	"github.com/ukydev/device-monitor/internal/metrics"
	"github.com/ukydev/device-monitor/internal/middleware"
	"github.com/ukydev/device-monitor/internal/notifier"
	"github.com/ukydev/device-monitor/internal/plugin"
	"github.com/ukydev/device-monitor/internal/publisher"
	"github.com/ukydev/device-monitor/internal/sampler"
	"github.com/ukydev/device-monitor/internal/scheduler"
	"github.com/ukydev/device-monitor/internal/tracklog"
)

// App is the wired device-monitor process.
type App struct {
	Scheduler *scheduler.Scheduler
	Plugin    *plugin.Plugin
	Board     *notifier.StatusBoard
	Handler   http.Handler
}

// newApp wires every component. client and records may be nil.
func newApp(cfg *config.Config, client publisher.Client, records db.RecordCollection, reg *prometheus.Registry) (*App, error) {
	format, err := tracklog.FormatByName(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	permission, err := device.NewPermissionFile(cfg.LocationPermission)
	if err != nil {
		return nil, err
	}
	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics()
	if err := m.Register(reg); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	location := device.NewSimulatedLocation(cfg.SimStartLat, cfg.SimStartLon, cfg.SimJitterMeters)
	board := notifier.NewStatusBoard()
	status := notifier.New(board)

	deps := scheduler.Deps{
		Sampler:            sampler.New(location, device.NewSimulatedBattery()),
		Writer:             tracklog.NewFileWriter(cfg.LogDir, cfg.LogFile, format),
		Notifier:           status,
		Publisher:          publisher.New(client, cfg.MQTTTopic, m),
		Metrics:            m,
		LegacyNullDistance: cfg.LegacyNullDistance,
	}
	if records != nil {
		deps.Mirror = records
	}
	sched := scheduler.New(deps)

	p := plugin.New(permission, plugin.NewForegroundService(sched, status))
	h := handlers.NewServiceHandler(p, board, notifier.NotificationID, sched, records)
	router := handlers.NewRouter(h, middleware.NewAuthMiddleware(authService), middleware.NewRateLimitMiddleware(), reg)

	return &App{
		Scheduler: sched,
		Plugin:    p,
		Board:     board,
		Handler:   router,
	}, nil
}

func connectMirror(cfg *config.Config) (db.RecordCollection, func()) {
	if cfg.MongoURI == "" {
		return nil, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Warn("Record mirror disabled")
		return nil, func() {}
	}
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	coll := &db.MongoCollection{Collection: client.Database(cfg.MongoDB).Collection("records")}
	return coll, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Disconnect(ctx)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(cfg.LogLevel)

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		log.WithError(err).WithField("dir", cfg.LogDir).Fatal("Failed to create log directory")
	}

	mqttClient := publisher.Connect(publisher.Options{
		BrokerURL: cfg.MQTTBrokerURL,
		ClientID:  cfg.MQTTClientID,
	})
	defer mqttClient.Disconnect(250)

	records, closeMirror := connectMirror(cfg)
	defer closeMirror()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := newApp(cfg, mqttClient, records, reg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialise device monitor")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Control API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutting down")

	app.Scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("HTTP shutdown did not complete")
	}
}
