// Package main is the entry point for the vitrina API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"vitrina/internal/cart"
	"vitrina/internal/catalog"
	"vitrina/internal/currency"
	v1 "vitrina/internal/infrastructure/http/v1"
	"vitrina/internal/infrastructure/kvstore"
	"vitrina/internal/infrastructure/storage/postgres"
	"vitrina/internal/pricing"
	"vitrina/internal/search"
	"vitrina/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting vitrina server")

	// --- Database connection ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	repo := postgres.NewStore(pool)

	// --- Persistent key-value store ---
	// Falls back to the in-memory store when Redis is not configured.
	var store kvstore.Store = kvstore.NewInMemory()
	var rdb *redis.Client
	if redisURL := getEnv("REDIS_URL", ""); redisURL != "" {
		client, err := kvstore.Connect(redisURL)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalw("failed to ping redis", "error", err)
		}
		store = kvstore.NewRedisStore(client, getEnv("REDIS_PREFIX", "vitrina"))
		rdb = client
		log.Info("redis connection established")
	}

	codec, err := kvstore.NewSnapshotCodec()
	if err != nil {
		log.Fatalw("failed to initialize snapshot codec", "error", err)
	}

	// --- Services ---
	registry := currency.NewRegistry(repo, store, log)

	locations := parseLocations(getEnv("STOCK_LOCATIONS", "1"))
	products := catalog.NewProductService(repo, locations, log)
	categories := catalog.NewCategoryService(repo, products, log)
	departments := catalog.NewDepartmentService(repo, categories, log)

	calculator := pricing.NewCalculator(registry)
	ledger := cart.NewLedger(calculator, registry, store, codec, log)
	aggregator := search.NewAggregator(departments, categories, products, log)

	// Warm currency data and restore persisted state before serving.
	registry.LoadAll(ctx)
	ledger.Restore(ctx)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:        pool,
		Redis:       rdb,
		Logger:      log,
		Registry:    registry,
		Departments: departments,
		Categories:  categories,
		Products:    products,
		Calculator:  calculator,
		Ledger:      ledger,
		Search:      aggregator,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// parseLocations reads the comma-separated list of sellable stock locations.
func parseLocations(raw string) []int64 {
	var locations []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		locations = append(locations, id)
	}
	return locations
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s is not set\n", key)
		os.Exit(1)
	}
	return value
}
