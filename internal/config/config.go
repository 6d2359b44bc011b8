// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/server and cmd/watchctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// League registry — fixed polling order, one entry per adapter
// --------------------------------------------------------------------------

type LeagueConfig struct {
	ID         string
	Name       string
	Sport      string // "team" or "individual"
	HasDetail  bool   // event-level scoring feed available
	PregameTag string // topic tag gating pre-game reminders
}

// LeagueRegistry lists every league the watcher knows about. Order here is
// the order leagues are polled in each cycle.
var LeagueRegistry = []LeagueConfig{
	{ID: "football", Name: "Football League", Sport: "team", HasDetail: true, PregameTag: "pregame_football"},
	{ID: "handball", Name: "Handball League", Sport: "team", HasDetail: false, PregameTag: "pregame_handball"},
	{ID: "cycling", Name: "Cycling Time Trials", Sport: "individual", HasDetail: false, PregameTag: "pregame_cycling"},
	{ID: "manual", Name: "Manually Entered Games", Sport: "team", HasDetail: false, PregameTag: "pregame_manual"},
}

// --------------------------------------------------------------------------
// Table names — single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	TeamsTable       = "teams"
	ManualGamesTable = "manual_games"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Data directory for the JSON registries and the error log
	DataDir string

	// Cache durations, per category
	ScheduleCacheBase time.Duration
	ScheduleCacheLive time.Duration
	DetailsCacheBase  time.Duration
	DetailsCacheLive  time.Duration
	MediaCacheBase    time.Duration

	// Goal watcher cadence
	WatcherActiveDelay time.Duration // previous cycle saw a live event
	WatcherIdleDelay   time.Duration

	// Pre-game reminders
	ReminderOffset   time.Duration
	ReminderScanHour int // local hour of the daily scan
	MaxSentReminders int

	// Bounded registries
	MaxErrorLogEntries int
	MaxSeenGames       int

	// Delivery channels
	FCMCredentialsFile string
	TelegramToken      string
	TelegramTopicChats map[string]int64 // topic -> chat id

	// League feeds
	FootballFeedURL       string
	FootballAPIKey        string
	HandballFeedURL       string
	CyclingFeedURL        string
	FeedRequestsPerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		DataDir: envOr("DATA_DIR", "./data"),

		ScheduleCacheBase: envDuration("SCHEDULE_CACHE_BASE", 5*time.Minute),
		ScheduleCacheLive: envDuration("SCHEDULE_CACHE_LIVE", 30*time.Second),
		DetailsCacheBase:  envDuration("DETAILS_CACHE_BASE", 2*time.Minute),
		DetailsCacheLive:  envDuration("DETAILS_CACHE_LIVE", 10*time.Second),
		MediaCacheBase:    envDuration("MEDIA_CACHE_BASE", 15*time.Minute),

		WatcherActiveDelay: envDuration("WATCHER_ACTIVE_DELAY", 15*time.Second),
		WatcherIdleDelay:   envDuration("WATCHER_IDLE_DELAY", 60*time.Second),

		ReminderOffset:   envDuration("REMINDER_OFFSET", 5*time.Minute),
		ReminderScanHour: envInt("REMINDER_SCAN_HOUR", 7),
		MaxSentReminders: envInt("MAX_SENT_REMINDERS", 200),

		MaxErrorLogEntries: envInt("MAX_ERROR_LOG_ENTRIES", 100),
		MaxSeenGames:       envInt("MAX_SEEN_GAMES", 500),

		FCMCredentialsFile: envOr("FIREBASE_CREDENTIALS_FILE", ""),
		TelegramToken:      envOr("TELEGRAM_BOT_TOKEN", ""),
		TelegramTopicChats: envChatMap("TELEGRAM_TOPIC_CHATS"),

		FootballFeedURL:       envOr("FOOTBALL_FEED_URL", "https://api.football.example/v1"),
		FootballAPIKey:        envOr("FOOTBALL_API_KEY", ""),
		HandballFeedURL:       envOr("HANDBALL_FEED_URL", "https://api.handball.example/v1"),
		CyclingFeedURL:        envOr("CYCLING_FEED_URL", "https://api.cycling.example/v1"),
		FeedRequestsPerMinute: envInt("FEED_REQUESTS_PER_MINUTE", 60),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// envChatMap parses "topic:chatid,topic:chatid" pairs.
func envChatMap(key string) map[string]int64 {
	result := make(map[string]int64)
	v := os.Getenv(key)
	if v == "" {
		return result
	}
	for _, pair := range strings.Split(v, ",") {
		topic, idStr, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		result[topic] = id
	}
	return result
}
