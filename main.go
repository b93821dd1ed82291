package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-raffle/internal/config"
	"ms-raffle/internal/kafka"
	"ms-raffle/internal/logger"
	ledgerdb "ms-raffle/internal/raffle/db"
	"ms-raffle/internal/raffle/raffle_api"
	ledgerredis "ms-raffle/internal/raffle/redis"
	raffle "ms-raffle/internal/raffle/service"
	"ms-raffle/internal/stories"
)

func connectPostgres(log *logger.Logger, dsn string) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
			if err == nil {
				break
			}
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, log *logger.Logger, addr string) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", addr))
	return client
}

// buildLedger picks the ticket counter backend. Both give the same
// per-user atomic increment guarantee; the choice is operational.
func buildLedger(ctx context.Context, cfg *config.Config, log *logger.Logger) (raffle.LedgerStore, func()) {
	switch cfg.Ledger.Backend {
	case "redis":
		client := connectRedis(ctx, log, cfg.Redis.Addr)
		log.Info("LEDGER", "Using Redis ticket ledger")
		return ledgerredis.NewLedger(client), func() { client.Close() }
	default:
		dsn := cfg.Database.PostgresDSN
		if dsn == "" {
			log.Fatal("CONFIG", "POSTGRES_DSN not set")
		}
		bunDB := connectPostgres(log, dsn)
		log.Info("LEDGER", "Using PostgreSQL ticket ledger")
		return &ledgerdb.DB{Bun: bunDB}, func() { bunDB.Close() }
	}
}

func buildProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled {
		return nil
	}
	if cfg.Kafka.MockMode {
		log.Info("KAFKA", "Mock mode enabled, entry events will only be logged")
		return kafka.NewMockProducer(log)
	}

	if err := kafka.CreateTopicIfNotExists(cfg.Kafka.Brokers, kafka.TopicEntryGranted); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}
	log.Info("KAFKA", fmt.Sprintf("Producer initialized for %v", cfg.Kafka.Brokers))
	return kafka.NewProducer(cfg.Kafka.Brokers, log)
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Raffle Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	ledger, closeLedger := buildLedger(ctx, cfg, log)
	defer closeLedger()

	producer := buildProducer(cfg, log)
	if producer != nil {
		defer producer.Close()
	}

	var events raffle.EntryPublisher
	if producer != nil {
		events = producer
	}
	entryService := raffle.NewEntryService(ledger, events, log)
	raffleHandler := raffle_api.NewHandler(entryService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// The widget runs in the browser on another origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	raffleHandler.RegisterRoutes(r)
	log.Info("ROUTER", "Raffle endpoints registered at /api/raffle-status and /api/raffle-entry")

	if cfg.Stories.UpstreamURL != "" {
		storyClient := stories.NewClient(cfg.Stories.UpstreamURL, &http.Client{Timeout: 10 * time.Second})
		storyHandler := stories.NewHandler(storyClient, log)
		storyHandler.RegisterRoutes(r)
		log.Info("ROUTER", fmt.Sprintf("Story proxy registered, forwarding to %s", cfg.Stories.UpstreamURL))
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Raffle Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Raffle Service shutdown complete")
	}
}
