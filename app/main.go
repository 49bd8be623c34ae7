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

	"github.com/feedlab/topicast/app/api"
	"github.com/feedlab/topicast/app/cfg"
	"github.com/feedlab/topicast/app/config"
	"github.com/feedlab/topicast/app/database"
	"github.com/feedlab/topicast/app/extraction"
	"github.com/feedlab/topicast/app/pool"
	"github.com/feedlab/topicast/app/scheduler"
	"github.com/feedlab/topicast/app/sources"
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

	slog.Info("Starting Topicast server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	contentRepo := database.NewContentRepository(db)
	topicRepo := database.NewTopicRepository(db)
	channelRepo := database.NewChannelRepository(db)

	recovered, err := contentRepo.RecoverOnStartup()
	if err != nil {
		slog.Error("Failed to recover interrupted items", "error", err)
		os.Exit(1)
	}
	if recovered > 0 {
		slog.Info("Recovered interrupted items", "count", recovered)
	}

	loader := config.NewLoader(appCfg.ChannelsDir)
	channelConfigs, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load channel configurations", "dir", appCfg.ChannelsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded channel configurations", "count", len(channelConfigs))

	httpClient := &http.Client{}
	adapters := buildAdapters(channelConfigs, httpClient, contentRepo, channelRepo, appCfg)
	slog.Info("Configured channels", "enabled", len(adapters), "total", len(channelConfigs))

	// InitialSince is validated during cfg.Load
	initialSince, _ := time.Parse("2006-01-02", appCfg.InitialSince)

	ingestor := scheduler.NewIngestor(adapters, contentRepo,
		time.Duration(appCfg.IngestInterval)*time.Second, initialSince)
	ingestor.Start()
	defer ingestor.Stop()

	completionClient := extraction.NewOpenAIClient(appCfg.ModelBaseURL, appCfg.ModelAPIKey, appCfg.Model)
	stage := extraction.NewStage(contentRepo, topicRepo, completionClient, appCfg.Model, appCfg.SystemPrompt)

	workers := pool.New(pool.Options{
		Name:        "extraction",
		WorkerCount: appCfg.WorkerCount,
		IdleDelay:   time.Duration(appCfg.IdleDelay) * time.Second,
		ErrorDelay:  time.Duration(appCfg.ErrorDelay) * time.Second,
	}, stage.Claim, stage.Process, stage.HandleError)
	workers.Start()
	defer workers.Stop()

	apiHandler := api.NewHandler(contentRepo, topicRepo, appCfg.Version)
	router := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
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

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Ingestor and worker pool are stopped via defer
	slog.Info("Shutdown complete")
}

// buildAdapters turns enabled channel configurations into source adapters
func buildAdapters(configs map[string]*config.ChannelConfig, httpClient *http.Client,
	contentRepo database.ContentRepository, channelRepo database.ChannelRepository,
	appCfg *cfg.Cfg) []sources.Adapter {
	adapters := make([]sources.Adapter, 0, len(configs))

	for file, channelConfig := range configs {
		if !channelConfig.Settings.Enabled {
			slog.Debug("Channel disabled, skipping", "file", file)
			continue
		}

		timeout := time.Duration(channelConfig.Settings.Timeout) * time.Second

		switch channelConfig.Channel.Source {
		case "youtube":
			adapters = append(adapters, sources.NewYouTubeAdapter(
				channelConfig.Channel.Account, httpClient, contentRepo, channelRepo,
				appCfg.UserAgent, timeout))
		case "rss":
			adapters = append(adapters, sources.NewRSSAdapter(
				channelConfig.Channel.Account, channelConfig.Channel.FeedURL,
				channelConfig.Settings.ExtractArticle, httpClient, contentRepo,
				appCfg.UserAgent, timeout))
		default:
			slog.Warn("Unsupported channel source, skipping", "file", file, "source", channelConfig.Channel.Source)
		}
	}

	return adapters
}
