package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"maxpain-lab/internal/config"
	"maxpain-lab/internal/reporting"
	"maxpain-lab/internal/storage"
	"maxpain-lab/internal/storage/migrations"
	pgstore "maxpain-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	outputDir := flag.String("output-dir", "", "Report output directory (overrides config)")
	stockCode := flag.String("stock", "", "Print all results for one stock instead of generating files")
	noFiles := flag.Bool("no-files", false, "Print the latest snapshot to stdout only")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[report] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if cfg.Storage.PostgresDSN == "" {
		logger.Fatal("postgres_dsn is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		logger.Fatalf("Connect to PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("PostgreSQL migrations: %v", err)
	}
	store := pgstore.NewResultStore(pool)

	console := reporting.NewConsole(os.Stdout)

	if *stockCode != "" {
		results, err := store.GetByStock(ctx, *stockCode)
		if err != nil {
			logger.Fatalf("Load results for %s: %v", *stockCode, err)
		}
		console.Print(results)
		return
	}

	if *noFiles {
		if err := printLatest(ctx, store, console); err != nil {
			logger.Fatalf("Print latest snapshot: %v", err)
		}
		return
	}

	dir := cfg.Report.OutputDir
	if *outputDir != "" {
		dir = *outputDir
	}

	gen := reporting.NewGenerator(store, dir, logger)
	out, err := gen.GenerateLatest(ctx)
	if err != nil {
		logger.Fatalf("Generate report: %v", err)
	}
	logger.Printf("Wrote %s", out.CSVPath)
	logger.Printf("Wrote %s", out.MarkdownPath)
	if out.ComparisonPath != "" {
		logger.Printf("Wrote %s", out.ComparisonPath)
	}
}

// printLatest renders the newest snapshot plus its drift against the
// previous one to stdout.
func printLatest(ctx context.Context, store storage.ResultStore, console *reporting.Console) error {
	times, err := store.GetLatestUpdateTimes(ctx, 2)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return storage.ErrNotFound
	}

	latest, err := store.GetByUpdateTime(ctx, times[0])
	if err != nil {
		return err
	}
	console.Print(latest)

	if len(times) > 1 {
		previous, err := store.GetByUpdateTime(ctx, times[1])
		if err != nil {
			return err
		}
		console.PrintComparison(reporting.Compare(latest, previous))
	}
	return nil
}
