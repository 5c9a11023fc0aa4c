// server runs the HTTP API: ingestion gateway plus zone/sensor administration
// and read endpoints. With REDIS_URL set, accepted events go to the shared
// Redis queue and cmd/worker consumes them. With REDIS_URL empty (dev mode),
// an in-process queue and counter cache are used and the stream processor
// runs inline.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	alerthandler "quakeguard/backend/internal/alert/handler"
	alertrepo "quakeguard/backend/internal/alert/repository"
	"quakeguard/backend/internal/cache"
	"quakeguard/backend/internal/config"
	"quakeguard/backend/internal/db"
	healthhandler "quakeguard/backend/internal/health/handler"
	ingesthandler "quakeguard/backend/internal/ingest/handler"
	ingestservice "quakeguard/backend/internal/ingest/service"
	"quakeguard/backend/internal/ingest/verifypool"
	measurementhandler "quakeguard/backend/internal/measurement/handler"
	measurementrepo "quakeguard/backend/internal/measurement/repository"
	"quakeguard/backend/internal/processor"
	"quakeguard/backend/internal/queue"
	sensorhandler "quakeguard/backend/internal/sensor/handler"
	sensorrepo "quakeguard/backend/internal/sensor/repository"
	"quakeguard/backend/internal/server"
	otelsetup "quakeguard/backend/internal/telemetry/otel"
	zonehandler "quakeguard/backend/internal/zone/handler"
	zonerepo "quakeguard/backend/internal/zone/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("server: DATABASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "quakeguard-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	zones := zonerepo.NewPostgresRepository(conn)
	sensors := sensorrepo.NewPostgresRepository(conn)
	measurements := measurementrepo.NewPostgresRepository(conn)
	alerts := alertrepo.NewPostgresRepository(conn)

	var (
		events     queue.Queue
		cachePing  healthhandler.CachePinger
		inlineProc *processor.Processor
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		client := redis.NewClient(opts)
		counters := cache.NewRedisCounter(client)
		events = queue.NewRedisQueue(client, cfg.QueueKey, cfg.QueueMaxDepth)
		cachePing = counters
		log.Printf("server: using redis queue %q (worker consumes)", cfg.QueueKey)
	} else {
		events = queue.NewMemoryQueue(cfg.QueueMaxDepth)
		counters := cache.NewMemoryCounter()
		inlineProc = processor.New(events, measurements, alerts, counters, nil, processor.Config{
			Threshold:   cfg.AlertThreshold,
			Window:      cfg.Window(),
			Cooldown:    cfg.Cooldown(),
			ScaleFactor: cfg.AlertScaleFactor,
		})
		log.Println("server: REDIS_URL empty, running in-process queue and processor (dev mode)")
	}
	defer events.Close()

	pool := verifypool.New(cfg.VerifyWorkers, cfg.VerifyQueueSize)
	pool.Start(ctx)
	defer pool.Stop()

	if inlineProc != nil {
		go inlineProc.Run(ctx)
	}

	ingestSvc := ingestservice.NewIngestService(sensors, pool, events, cfg.MaxDrift(), cfg.PushTimeout())

	router := server.NewRouter(server.Deps{
		Ingest:       ingesthandler.NewHandler(ingestSvc),
		Zones:        zonehandler.NewHandler(zones),
		Sensors:      sensorhandler.NewHandler(sensors, zones),
		Measurements: measurementhandler.NewHandler(measurements, sensors),
		Alerts:       alerthandler.NewHandler(alerts, zones),
		Health:       healthhandler.NewHandler(conn, cachePing),
	})

	srv := server.New(cfg.HTTPAddr, router)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("server stopped")
}
