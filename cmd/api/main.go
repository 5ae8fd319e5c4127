package main

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/opentix/ledger/internal/app"
	"github.com/opentix/ledger/internal/cache"
	"github.com/opentix/ledger/internal/clock"
	"github.com/opentix/ledger/internal/config"
	"github.com/opentix/ledger/internal/metrics"
	"github.com/opentix/ledger/internal/storage/memory"
	"github.com/opentix/ledger/internal/storage/postgres"
	transporthttp "github.com/opentix/ledger/internal/transport/http"
	"github.com/opentix/ledger/migrations"
)

const shutdownTimeout = 10 * time.Second

// ledgerStore is the union of the repository interfaces the services need,
// satisfied by both the Postgres and the in-memory store.
type ledgerStore interface {
	app.AccountRepository
	app.EventRepository
	app.TicketRepository
}

func main() {
	logger := log.Default()
	loadEnvFile(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	metrics.Init()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var store ledgerStore
	switch cfg.Storage {
	case "memory":
		logger.Printf("WARN: STORAGE=memory, ledger state will not survive a restart")
		store = memory.NewStore()
	case "postgres":
		pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(startupCtx); err != nil {
			log.Fatalf("db ping: %v", err)
		}
		if err := migrations.Apply(startupCtx, pool); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
		store = postgres.NewStore(pool)
	default:
		log.Fatalf("unknown STORAGE %q (want postgres or memory)", cfg.Storage)
	}

	var eventCache app.EventCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(startupCtx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		defer client.Close()
		eventCache = cache.NewEvents(client, cfg.EventCacheTTL)
		logger.Printf("event cache enabled at %s (ttl %s)", cfg.RedisAddr, cfg.EventCacheTTL)
	}

	accountSvc := app.NewAccountService(store, clock.NewSystem())

	var eventOpts []app.EventServiceOption
	var ticketOpts []app.TicketServiceOption
	if eventCache != nil {
		eventOpts = append(eventOpts, app.WithEventCache(eventCache))
		ticketOpts = append(ticketOpts, app.WithPurchaseEventCache(eventCache))
	}
	eventSvc := app.NewEventService(store, clock.NewSystem(), eventOpts...)
	ticketSvc := app.NewTicketService(store, clock.NewSystem(), ticketOpts...)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/accounts", transporthttp.HandleAccounts(accountSvc))
	mux.Handle("/accounts/me", transporthttp.HandleMyAccount(accountSvc))
	mux.Handle("/accounts/topup", transporthttp.HandleTopUpBalance(accountSvc))
	mux.Handle("/accounts/migrate", transporthttp.HandleMigrateAccount(accountSvc))
	mux.Handle("/events", transporthttp.HandleEvents(eventSvc))
	mux.Handle("/events/", transporthttp.HandleEventByID(eventSvc, ticketSvc))
	mux.Handle("/tickets", transporthttp.HandleTickets(ticketSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.Printf("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}

func loadEnvFile(logger *log.Logger) {
	path, err := findEnvFile()
	if err != nil {
		logger.Printf("WARN: failed to locate .env: %v", err)
		return
	}
	if path == "" {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Printf("WARN: failed to open %s: %v", path, err)
		return
	}
	if err := parseEnvFile(logger, file); err != nil {
		logger.Printf("WARN: failed to load %s: %v", path, err)
	} else {
		logger.Printf("loaded env from %s", path)
	}
	_ = file.Close()
}

func findEnvFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for i := 0; i < 6; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

func parseEnvFile(logger *log.Logger, file *os.File) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		value = trimQuotes(value)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			logger.Printf("WARN: failed to set %s from env file", key)
		}
	}
	return scanner.Err()
}

func trimQuotes(value string) string {
	if len(value) < 2 {
		return value
	}
	if (value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '\'' && value[len(value)-1] == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
