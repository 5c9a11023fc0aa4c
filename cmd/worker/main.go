// worker runs the stream processor: it consumes validated events from the
// Redis queue, persists measurements, and raises threshold alerts. Exactly one
// instance should run; see internal/processor for the scale-out caveat.
// Requires DATABASE_URL and REDIS_URL. With KAFKA_BROKERS set, created alerts
// are also published to ALERTS_KAFKA_TOPIC.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"quakeguard/backend/internal/alert/notifier"
	alertrepo "quakeguard/backend/internal/alert/repository"
	"quakeguard/backend/internal/cache"
	"quakeguard/backend/internal/config"
	"quakeguard/backend/internal/db"
	measurementrepo "quakeguard/backend/internal/measurement/repository"
	"quakeguard/backend/internal/processor"
	"quakeguard/backend/internal/queue"
	otelsetup "quakeguard/backend/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		log.Fatal("worker: REDIS_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "quakeguard-worker", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	client := redis.NewClient(opts)
	events := queue.NewRedisQueue(client, cfg.QueueKey, cfg.QueueMaxDepth)
	defer events.Close()
	counters := cache.NewRedisCounter(client)

	kafkaNotifier, err := notifier.NewKafkaNotifier(cfg.KafkaBrokersList(), cfg.AlertsKafkaTopic)
	if err != nil {
		log.Fatalf("notifier: %v", err)
	}
	defer kafkaNotifier.Close()
	if kafkaNotifier != nil {
		log.Printf("worker: publishing alerts to kafka topic %q", cfg.AlertsKafkaTopic)
	}

	proc := processor.New(
		events,
		measurementrepo.NewPostgresRepository(conn),
		alertrepo.NewPostgresRepository(conn),
		counters,
		kafkaNotifier,
		processor.Config{
			Threshold:   cfg.AlertThreshold,
			Window:      cfg.Window(),
			Cooldown:    cfg.Cooldown(),
			ScaleFactor: cfg.AlertScaleFactor,
		},
	)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	proc.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("worker stopped")
}
