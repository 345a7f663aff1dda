package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cardbazaar/cardbazaar/backend/internal/api"
	"github.com/cardbazaar/cardbazaar/backend/internal/database"
	"github.com/cardbazaar/cardbazaar/backend/internal/models"
	"github.com/cardbazaar/cardbazaar/backend/internal/scrape"
	"github.com/cardbazaar/cardbazaar/backend/internal/services"
)

func main() {
	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./cardbazaar.db"
	}

	// Initialize database
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	catalogService := services.NewCatalogService(database.GetDB())

	// Scrape tuning
	maxPages := envInt("SCRAPE_MAX_PAGES", 50)
	pageDelay := time.Duration(envInt("SCRAPE_PAGE_DELAY_MS", 2000)) * time.Millisecond

	// One pipeline per source: the pager owns the per-source politeness
	// limiter, so requests to each source stay strictly sequential.
	priceCharting := scrape.NewPriceChartingAdapter()
	snkrDunk := scrape.NewSnkrDunkAdapter()
	pipelines := []services.SourcePipeline{
		{
			Source:  models.SourcePriceCharting,
			Adapter: priceCharting,
			Pager:   scrape.NewPager(scrape.NewHTTPFetcher(), maxPages, pageDelay),
			SetURL:  priceCharting.SetURL,
		},
		{
			Source:  models.SourceSnkrDunk,
			Adapter: snkrDunk,
			Pager:   scrape.NewPager(scrape.NewRenderFetcher(scrape.SnkrDunkWaitSelector), maxPages, pageDelay),
			SetURL:  snkrDunk.SetURL,
		},
	}

	// Initialize refresh worker (staleness-driven catalog refresh)
	refreshWorker := services.NewRefreshWorker(
		catalogService,
		pipelines,
		envInt("REFRESH_SET_LIMIT", 5),
		time.Duration(envInt("REFRESH_INTERVAL_MINUTES", 30))*time.Minute,
		time.Duration(envInt("REFRESH_RUN_BUDGET_SECONDS", 300))*time.Second,
	)

	// Initialize set-code sync against the Google Sheet
	sheetReader := services.NewSheetsRowReader(
		os.Getenv("SHEETS_API_KEY"),
		os.Getenv("SETCODE_SPREADSHEET_ID"),
		os.Getenv("SETCODE_RANGE"),
	)
	setCodeSync := services.NewSetCodeSyncService(catalogService, sheetReader)

	// Initialize snapshot service for daily price history
	snapshotService := services.NewSnapshotService(database.GetDB())

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start refresh worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in refresh worker: %v - restarting in 30 seconds", r)
					}
				}()
				refreshWorker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return // Graceful shutdown
			case <-time.After(30 * time.Second):
				log.Println("Refresh worker restarting after panic recovery...")
			}
		}
	}()

	// Start snapshot service in background
	go snapshotService.Start(ctx)

	// Setup router
	router := api.SetupRouter(catalogService, refreshWorker, setCodeSync, snapshotService)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the background workers
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return fallback
}
