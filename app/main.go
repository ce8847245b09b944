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

	"github.com/devsignals/pipeline/app/aggregator"
	"github.com/devsignals/pipeline/app/api"
	"github.com/devsignals/pipeline/app/cfg"
	"github.com/devsignals/pipeline/app/database"
	"github.com/devsignals/pipeline/app/dedup"
	"github.com/devsignals/pipeline/app/normalizer"
	"github.com/devsignals/pipeline/app/sources"
	"github.com/devsignals/pipeline/app/tasks"
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

	slog.Info("Starting DevSignals", "version", appCfg.Version)

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
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := sources.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source overrides", "error", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(appCfg, configCache)
	if err != nil {
		slog.Error("Failed to build source registry", "error", err)
		os.Exit(1)
	}
	slog.Info("Source registry populated", "sources", len(registry.All()), "enabled", len(registry.Enabled()))

	itemRepo := database.NewItemRepository(db)
	runRepo := database.NewRunRepository(db)

	httpClient := &http.Client{Timeout: time.Duration(appCfg.SourceTimeout) * time.Second}

	norm := normalizer.New(registry)
	ddup := dedup.New(itemRepo)
	agg := aggregator.New(registry, norm, ddup, runRepo, httpClient, appCfg.UserAgent)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(agg, configCache)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(db, itemRepo, runRepo, registry, agg)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
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

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// buildRegistry registers every known source. The registry is explicit,
// constructed once here and injected; there is no package-level source
// table.
func buildRegistry(appCfg *cfg.Cfg, configCache *sources.ConfigCache) (*sources.Registry, error) {
	client := &http.Client{Timeout: time.Duration(appCfg.SourceTimeout) * time.Second}
	registry := sources.NewRegistry(configCache)

	all := []sources.Source{
		sources.NewHackerNews(client, appCfg.UserAgent),
		sources.NewGitHubTrending(client, appCfg.UserAgent, appCfg.GitHubToken),
		sources.NewProductHunt(client, appCfg.UserAgent, appCfg.ProductHuntToken),
		sources.NewDevTo(client, appCfg.UserAgent),
		sources.NewLobsters(client, appCfg.UserAgent),
		sources.NewRSSSource(client, appCfg.UserAgent, "go-blog", "https://go.dev/blog/feed.atom",
			sources.TierConditional, 0.8, 24*time.Hour, "go", "golang"),
		sources.NewRSSSource(client, appCfg.UserAgent, "rust-blog", "https://blog.rust-lang.org/feed.xml",
			sources.TierConditional, 0.8, 24*time.Hour, "rust"),
	}

	for _, src := range all {
		if err := registry.Register(src); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
