package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/citybeat/citybeat/app/api"
	"github.com/citybeat/citybeat/app/cfg"
	"github.com/citybeat/citybeat/app/database"
	"github.com/citybeat/citybeat/app/metrics"
	"github.com/citybeat/citybeat/app/pipeline"
	"github.com/citybeat/citybeat/app/scraper"
	"github.com/citybeat/citybeat/app/sources"
	"github.com/citybeat/citybeat/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting CityBeat server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	eventRepo := database.NewEventRepository(db)

	registry := sources.NewRegistry()
	if appCfg.SourcesDir != "" {
		if err := registry.LoadDir(appCfg.SourcesDir); err != nil {
			slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
			os.Exit(1)
		}
	}

	httpClient := &http.Client{Timeout: scraper.DefaultNavigationTimeout}
	fetcher := scraper.NewHTTPFetcher(httpClient, appCfg.UserAgent)
	extractor := scraper.NewExtractor(fetcher)
	contentExtractor := scraper.NewContentExtractor()

	m := metrics.New()
	reconciler := pipeline.NewReconciler(eventRepo)
	scrapePipeline := pipeline.NewPipeline(registry, extractor, reconciler, m)

	scheduler := tasks.NewScheduler(scrapePipeline, eventRepo, httpClient, contentExtractor)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(eventRepo, scrapePipeline, scheduler, appCfg.DefaultCity)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
