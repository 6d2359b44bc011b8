// Command server is the MatchWatch API and notification server. It runs the
// goal watcher, the pre-game reminder scheduler, and the HTTP API.
//
// Usage:
//
//	matchwatch-server
//	API_PORT=8080 matchwatch-server

// @title MatchWatch API
// @version 1.0.0
// @description Live goal notifications and pre-game reminders for tracked leagues, with admin-entered games and delivery over FCM and Telegram.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name MatchWatch
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/matchwatch/matchwatch/internal/activity"
	"github.com/matchwatch/matchwatch/internal/api"
	"github.com/matchwatch/matchwatch/internal/api/handler"
	"github.com/matchwatch/matchwatch/internal/cache"
	"github.com/matchwatch/matchwatch/internal/clock"
	"github.com/matchwatch/matchwatch/internal/config"
	"github.com/matchwatch/matchwatch/internal/db"
	"github.com/matchwatch/matchwatch/internal/league"
	"github.com/matchwatch/matchwatch/internal/league/cycling"
	"github.com/matchwatch/matchwatch/internal/league/feedapi"
	"github.com/matchwatch/matchwatch/internal/league/football"
	"github.com/matchwatch/matchwatch/internal/league/handball"
	"github.com/matchwatch/matchwatch/internal/league/manual"
	"github.com/matchwatch/matchwatch/internal/notify"
	"github.com/matchwatch/matchwatch/internal/notify/fcm"
	"github.com/matchwatch/matchwatch/internal/notify/telegram"
	"github.com/matchwatch/matchwatch/internal/remind"
	"github.com/matchwatch/matchwatch/internal/store"
	"github.com/matchwatch/matchwatch/internal/watch"

	_ "github.com/matchwatch/matchwatch/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	clk := clock.System()

	// Feed cache with per-category adaptive durations
	appCache := cache.New(clk, map[cache.Category]cache.Durations{
		cache.CategorySchedule: {Base: cfg.ScheduleCacheBase, Live: cfg.ScheduleCacheLive},
		cache.CategoryDetails:  {Base: cfg.DetailsCacheBase, Live: cfg.DetailsCacheLive},
		cache.CategoryMedia:    {Base: cfg.MediaCacheBase},
	})

	// Durable registries and the bounded error log
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("Failed to create data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	activityLog := activity.New(clk, filepath.Join(cfg.DataDir, "error_log.json"), cfg.MaxErrorLogEntries, logger)
	seenGames := store.LoadIDList(filepath.Join(cfg.DataDir, "seen_games.json"), cfg.MaxSeenGames, logger)
	sentReminders := store.LoadIDList(filepath.Join(cfg.DataDir, "sent_reminders.json"), cfg.MaxSentReminders, logger)

	// Delivery channels
	var channels []notify.Channel
	if cfg.FCMCredentialsFile != "" {
		fcmChannel, err := fcm.New(ctx, cfg.FCMCredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize FCM channel", "error", err)
			os.Exit(1)
		}
		channels = append(channels, fcmChannel)
		logger.Info("FCM channel enabled")
	} else {
		logger.Info("FCM channel disabled (no FIREBASE_CREDENTIALS_FILE)")
	}
	if cfg.TelegramToken != "" {
		tgChannel, err := telegram.New(cfg.TelegramToken, cfg.TelegramTopicChats)
		if err != nil {
			logger.Error("Failed to initialize Telegram channel", "error", err)
			os.Exit(1)
		}
		channels = append(channels, tgChannel)
		logger.Info("Telegram channel enabled", "topics", len(cfg.TelegramTopicChats))
	} else {
		logger.Info("Telegram channel disabled (no TELEGRAM_BOT_TOKEN)")
	}
	if len(channels) == 0 {
		logger.Warn("No delivery channels configured; notifications will be counted but not sent")
	}

	pregameTags := make(map[string]string, len(config.LeagueRegistry))
	for _, lc := range config.LeagueRegistry {
		pregameTags[lc.ID] = lc.PregameTag
	}
	dispatcher := notify.NewDispatcher(channels, clk, pregameTags, activityLog, logger)

	// League adapters, registered in polling order
	gamesStore := manual.NewStore(pool.Pool)
	leagues := league.NewRegistry()
	leagues.Register(football.New(
		feedapi.NewClient(cfg.FootballFeedURL, cfg.FootballAPIKey, cfg.FeedRequestsPerMinute, logger),
		appCache, logger))
	leagues.Register(handball.New(
		feedapi.NewClient(cfg.HandballFeedURL, "", cfg.FeedRequestsPerMinute, logger),
		appCache, logger))
	leagues.Register(cycling.New(
		feedapi.NewClient(cfg.CyclingFeedURL, "", cfg.FeedRequestsPerMinute, logger),
		appCache, logger))
	leagues.Register(manual.New(gamesStore, logger))

	// Goal watcher
	watcher := watch.New(leagues, dispatcher, clk, watch.Config{
		ActiveDelay: cfg.WatcherActiveDelay,
		IdleDelay:   cfg.WatcherIdleDelay,
	}, seenGames, activityLog, logger)
	go watcher.Run(ctx)

	// Pre-game reminder scheduler
	scheduler := remind.New(leagues, dispatcher, clk, remind.Config{
		Offset:   cfg.ReminderOffset,
		ScanHour: cfg.ReminderScanHour,
	}, sentReminders, activityLog, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start reminder scheduler", "error", err)
		os.Exit(1)
	}

	// Create router
	h := handler.New(pool, appCache, cfg, leagues, gamesStore, dispatcher, watcher, scheduler, activityLog)
	router := api.NewRouter(h, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting MatchWatch API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	scheduler.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	// Let in-flight secondary notification sends finish
	dispatcher.Flush()
	logger.Info("Server stopped")
}
