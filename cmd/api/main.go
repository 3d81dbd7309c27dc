package main

import (
	"context"
	"log"
	"time"

	"live-tracker/internal/core/cache"
	"live-tracker/internal/core/config"
	"live-tracker/internal/core/logger"
	"live-tracker/internal/core/proxy"
	"live-tracker/internal/core/server"
	trackingadapter "live-tracker/internal/features/tracking/adapters"
	trackinghandler "live-tracker/internal/features/tracking/handler"
	trackingservice "live-tracker/internal/features/tracking/service"

	"go.uber.org/zap"
)

// @title Live Tracker API
// @version 1.0
// @description Live shipment tracking: on-demand snapshots reconciled with a realtime status stream.
// @contact.name API Support
// @contact.email support@livetracker.dev
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	proxySettings := proxy.Settings{
		Enabled:  cfg.Proxy.Enabled,
		Hostname: cfg.Proxy.Hostname,
		Port:     cfg.Proxy.Port,
		Username: cfg.Proxy.Username,
		Password: cfg.Proxy.Password,
	}

	// Snapshot cache is optional; the service falls back to the tracking API.
	var snapshotCache cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL)
		if err != nil {
			l.Fatal("Failed to create Redis adapter", zap.Error(err))
		}
		if err := redisCache.Ping(context.Background()); err != nil {
			l.Warn("Redis unreachable, continuing without snapshot cache", zap.Error(err))
		} else {
			snapshotCache = redisCache
			defer redisCache.Close()
			l.Info("Snapshot cache enabled")
		}
	}

	apiAdapter := trackingadapter.NewTrackingAPIAdapter(cfg.Tracking, proxySettings)
	channel := trackingadapter.NewWSChannel(trackingadapter.ChannelConfig{
		URL:   cfg.Realtime.URL,
		Proxy: proxySettings,
	})

	snapshotTTL := time.Duration(cfg.Redis.SnapshotTTLSeconds) * time.Second
	snapshotSvc := trackingservice.NewSnapshotService(apiAdapter, snapshotCache, snapshotTTL)

	session := trackingservice.NewSession(apiAdapter, channel, cfg.Tracking.AuthToken)
	session.Start()
	defer session.Stop()

	trackingHdl := trackinghandler.NewTrackingHandler(snapshotSvc, session)

	srv := server.New(cfg)

	// Register Routes
	srv.App.Get("/shipments/:number/status", trackingHdl.GetShipmentStatus)
	srv.App.Post("/watch/:number", trackingHdl.WatchShipment)
	srv.App.Delete("/watch", trackingHdl.UnwatchShipment)
	srv.App.Get("/watch", trackingHdl.GetLiveView)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
