package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maxpain-lab/internal/config"
	"maxpain-lab/internal/observability"
	"maxpain-lab/internal/pipeline"
	"maxpain-lab/internal/storage"
	chstore "maxpain-lab/internal/storage/clickhouse"
	"maxpain-lab/internal/storage/memory"
	"maxpain-lab/internal/storage/migrations"
	pgstore "maxpain-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	interval := flag.Duration("interval", 0, "Rerun interval (0 runs once and exits)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse/PostgreSQL")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[maxpain] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	metrics := observability.NewMetrics("")

	// Start metrics server if enabled
	addr := cfg.Metrics.Addr
	if *metricsAddr != "" {
		addr = *metricsAddr
	}
	if addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()

	// Setup storage
	var rowStore storage.OptionRowStore
	var resultStore storage.ResultStore
	if *useMemory {
		logger.Println("Using in-memory storage")
		rowStore = memory.NewOptionRowStore()
		resultStore = memory.NewResultStore()
	} else {
		if cfg.Storage.ClickhouseDSN == "" || cfg.Storage.PostgresDSN == "" {
			logger.Fatal("clickhouse_dsn and postgres_dsn are required (or pass --use-memory)")
		}

		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			logger.Fatalf("ClickHouse migrations: %v", err)
		}
		defer conn.Close()
		rowStore = chstore.NewOptionRowStore(conn)
		logger.Println("Connected to ClickHouse")

		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatalf("Connect to PostgreSQL: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("PostgreSQL migrations: %v", err)
		}
		resultStore = pgstore.NewResultStore(pool)
		logger.Println("Connected to PostgreSQL")
	}

	p := pipeline.New(pipeline.Options{
		RowStore:    rowStore,
		ResultStore: resultStore,
		Metrics:     metrics,
		Logger:      logger,
	})

	runOnce := func() {
		result, err := p.Run(ctx)
		if err != nil {
			logger.Printf("Pipeline run failed: %v", err)
			return
		}
		logger.Printf("Pipeline run: %d rows, %d groups, %d stored, %d duplicates",
			result.RowsLoaded, result.GroupsTotal, result.ResultsStored, result.Duplicates)
	}

	runOnce()
	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Println("Shutdown complete")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
