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
	"maxpain-lab/internal/ingestion"
	"maxpain-lab/internal/observability"
	"maxpain-lab/internal/provider"
	"maxpain-lab/internal/storage"
	chstore "maxpain-lab/internal/storage/clickhouse"
	"maxpain-lab/internal/storage/memory"
	"maxpain-lab/internal/storage/migrations"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	once := flag.Bool("once", false, "Collect a single snapshot and exit (ignores market hours)")
	stream := flag.Bool("stream", false, "Collect from the WebSocket quote stream instead of polling")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[collect] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if len(cfg.Collector.WatchList) == 0 {
		logger.Fatal("Empty watch list, nothing to collect")
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

	// Setup row storage
	var rowStore storage.OptionRowStore
	if *useMemory {
		logger.Println("Using in-memory row storage")
		rowStore = memory.NewOptionRowStore()
	} else {
		if cfg.Storage.ClickhouseDSN == "" {
			logger.Fatal("clickhouse_dsn is required (or pass --use-memory)")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			logger.Fatalf("ClickHouse migrations: %v", err)
		}
		defer conn.Close()
		rowStore = chstore.NewOptionRowStore(conn)
		logger.Println("Connected to ClickHouse")
	}

	watchList := make([]ingestion.WatchItem, len(cfg.Collector.WatchList))
	for i, w := range cfg.Collector.WatchList {
		watchList[i] = ingestion.WatchItem{StockCode: w.StockCode, Expiries: w.Expiries}
	}

	if *stream {
		if cfg.Provider.WSEndpoint == "" {
			logger.Fatal("ws_endpoint is required for --stream")
		}
		qs, err := provider.NewQuoteStream(ctx, cfg.Provider.WSEndpoint, nil)
		if err != nil {
			logger.Fatalf("Connect quote stream: %v", err)
		}
		defer qs.Close()
		for _, w := range watchList {
			for _, expiry := range w.Expiries {
				if err := qs.Subscribe(w.StockCode, expiry); err != nil {
					logger.Fatalf("Subscribe %s/%s: %v", w.StockCode, expiry, err)
				}
			}
		}
		logger.Printf("Subscribed to quote stream for %d stocks", len(watchList))

		collector := ingestion.NewStreamCollector(ingestion.StreamCollectorOptions{
			Stream:   qs,
			RowStore: rowStore,
			Metrics:  metrics,
			Logger:   logger,
		})
		if err := collector.Run(ctx); err != nil && err != context.Canceled {
			logger.Fatalf("Stream collector error: %v", err)
		}
		logger.Println("Shutdown complete")
		return
	}

	// Setup market data gateway client
	client := provider.NewHTTPClient(cfg.Provider.BaseURL,
		provider.WithTimeout(cfg.ProviderTimeout()),
		provider.WithMaxRetries(cfg.Provider.MaxRetries),
		provider.WithAPIKey(cfg.Provider.APIKey),
	)

	clock, err := ingestion.NewMarketClock()
	if err != nil {
		logger.Fatalf("Load exchange time zone: %v", err)
	}

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		ChainSource:      ingestion.NewHTTPChainSource(client, metrics),
		QuoteSource:      ingestion.NewHTTPQuoteSource(client, metrics),
		StockQuoteSource: ingestion.NewHTTPStockQuoteSource(client, metrics),
		RowStore:         rowStore,
		Clock:            clock,
		WatchList:        watchList,
		Interval:         cfg.CollectInterval(),
		RetentionDays:    cfg.Collector.RetentionDays,
		Metrics:          metrics,
		Logger:           logger,
	})

	if *once {
		if err := runner.CollectOnce(ctx); err != nil {
			logger.Fatalf("Collection failed: %v", err)
		}
		logger.Println("Single collection complete")
		return
	}

	start := time.Now()
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatalf("Runner error: %v", err)
	}
	logger.Printf("Shutdown complete after %s", time.Since(start).Round(time.Second))
}
