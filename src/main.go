package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"tomekeeper/src/features/config"
	"tomekeeper/src/features/hosting"
	"tomekeeper/src/features/jobs"
	"tomekeeper/src/features/logging"
	"tomekeeper/src/features/pushing"
	"tomekeeper/src/features/reconciling"
	"tomekeeper/src/features/renaming"
	"tomekeeper/src/features/scanning"
	"tomekeeper/src/features/writing"
	"tomekeeper/src/infra/abs"
	"tomekeeper/src/infra/cache"
	"tomekeeper/src/infra/files"
	"tomekeeper/src/infra/providers"
	"tomekeeper/src/infra/tag"
	"tomekeeper/src/infra/watcher"
	"tomekeeper/src/infra/workers"
)

func main() {
	// Load configuration
	cfgManager, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	// Shared infrastructure
	pool := workers.NewPool(cfgManager.Get().MaxWorkers)
	defer pool.Close()

	tagReader := tag.NewReader()
	tagWriter := tag.NewWriter(cfgManager)

	metadataCache, err := cache.NewStore(cfgManager.Get().Cache.Path, cfgManager.Get().Cache.TTL)
	if err != nil {
		log.Fatalf("failed to open metadata cache: %v", err)
	}
	defer metadataCache.Close()

	// Create the job service
	jobService := jobs.NewService(&cfgManager.Get().Jobs)

	// Create the scanning service
	scanningService := scanning.NewService(cfgManager, tagReader, pool)
	scanTask := scanning.NewScanTask(scanningService)
	jobService.RegisterHandler("library_scan", jobs.NewBaseTaskHandler(scanTask))

	// Create the reconciling service with its metadata providers
	metadataProviders := []reconciling.Provider{
		providers.NewAudible(cfgManager),
		providers.NewGoogleBooks(cfgManager),
		providers.NewOpenLibrary(cfgManager),
	}
	reconcilingService := reconciling.NewService(cfgManager, metadataCache, metadataProviders)

	// Create the writing service
	writingService := writing.NewService(cfgManager, tagWriter, tagReader, pool)
	writeTask := writing.NewWriteTask(writingService, scanningService)
	jobService.RegisterHandler("tag_write", jobs.NewBaseTaskHandler(writeTask))

	// Create the renaming service
	pathParser := files.NewTemplatePathParser(cfgManager)
	organizer := files.NewOrganizer(cfgManager, pathParser)
	renamingService := renaming.NewService(organizer)

	// Create the pushing service
	absClient := abs.NewClient(cfgManager)
	pushingService := pushing.NewService(cfgManager, absClient)
	pushTask := pushing.NewPushTask(pushingService, scanningService)
	jobService.RegisterHandler("abs_push", jobs.NewBaseTaskHandler(pushTask))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the file watcher if enabled; new files trigger a scan job
	if cfgManager.Get().Watcher.Enabled {
		events := make(chan watcher.FileEvent, 16)
		fileWatcher, err := watcher.NewWatcher(events)
		if err != nil {
			slog.Error("Failed to create file watcher", "error", err)
		} else if err := fileWatcher.Start(ctx, cfgManager.Get().ScanPaths); err != nil {
			slog.Error("Failed to start file watcher", "error", err)
		} else {
			defer fileWatcher.Stop()
			go func() {
				for range events {
					if _, err := jobService.StartJob("library_scan", "Library scan (watcher)", map[string]any{}); err != nil {
						slog.Warn("Failed to start watcher-triggered scan", "error", err)
					}
				}
			}()
		}
	}

	// Create and start the Telegram bot if enabled
	var telegramBot *hosting.TelegramBot
	if cfgManager.Get().Telegram.Enabled {
		var err error
		telegramBot, err = hosting.NewTelegramBot(cfgManager, scanningService, jobService)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
		} else {
			go telegramBot.Start()
			slog.Info("Telegram bot started")
		}
	}

	// Create and start the HTTP server
	server := hosting.NewServer(cfgManager, scanningService, reconcilingService, writingService, renamingService, pushingService, jobService, tagReader)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()
	slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfgManager.Get().Server.Port)

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	slog.Info("Shutting down server...")

	if telegramBot != nil {
		telegramBot.Stop()
		slog.Info("Telegram bot stopped")
	}

	if err := server.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown server: %v", err)
	}
	slog.Info("Server gracefully shut down.")
}
