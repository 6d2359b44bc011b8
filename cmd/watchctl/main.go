// Command watchctl is the MatchWatch operations CLI.
//
// Usage:
//
//	watchctl send-test --topic goals --title "Hello" --body "Test message"
//	watchctl cycle --count 3
//	watchctl scan
//	watchctl stats --addr http://localhost:8000
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

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
	"github.com/matchwatch/matchwatch/internal/store"
	"github.com/matchwatch/matchwatch/internal/watch"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "watchctl",
		Short: "MatchWatch operations CLI",
	}

	root.AddCommand(sendTestCmd())
	root.AddCommand(cycleCmd())
	root.AddCommand(scanCmd())
	root.AddCommand(statsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// send-test command
// --------------------------------------------------------------------------

func sendTestCmd() *cobra.Command {
	var title, body, topic, condition, token string
	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Send a test notification through the configured channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			if topic == "" && condition == "" && token == "" {
				return fmt.Errorf("one of --topic, --condition, or --token is required")
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			channels, err := buildChannels(ctx, cfg)
			if err != nil {
				return err
			}
			if len(channels) == 0 {
				return fmt.Errorf("no delivery channels configured")
			}

			dispatcher := notify.NewDispatcher(channels, clock.System(), nil, nil, logger)
			result := dispatcher.SendTest(ctx, title, body, notify.Target{
				Topic: topic, Condition: condition, Token: token,
			})
			dispatcher.Flush()
			if !result.Delivered {
				if result.Err != nil {
					return fmt.Errorf("delivery failed: %w", result.Err)
				}
				return fmt.Errorf("no channel delivered the message")
			}
			logger.Info("Test message delivered", "channels", dispatcher.Stats())
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "MatchWatch test", "Message title")
	cmd.Flags().StringVar(&body, "body", "Test message from watchctl", "Message body")
	cmd.Flags().StringVar(&topic, "topic", "", "Target topic")
	cmd.Flags().StringVar(&condition, "condition", "", "Target condition expression")
	cmd.Flags().StringVar(&token, "token", "", "Target device token")
	return cmd
}

// --------------------------------------------------------------------------
// cycle command — dry-run goal detection against the live feeds
// --------------------------------------------------------------------------

// printSink logs detected goals instead of dispatching them.
type printSink struct{}

func (printSink) SendGoal(ctx context.Context, g notify.Goal) error {
	logger.Info("Goal detected",
		"league", g.Event.LeagueID, "event", g.Event.ID,
		"side", g.Scoring.Side, "scorer", g.Scoring.ScorerName,
		"score", fmt.Sprintf("%d-%d", g.Scoring.HomeScore, g.Scoring.AwayScore),
		"fingerprint", g.Fingerprint)
	return nil
}

func cycleCmd() *cobra.Command {
	var count int
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run watcher cycles against the live feeds, printing goals instead of sending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCtl(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				leagues := buildLeagues(cfg, pool)
				w := watch.New(leagues, printSink{}, clock.System(), watch.Config{
					ActiveDelay: cfg.WatcherActiveDelay,
					IdleDelay:   cfg.WatcherIdleDelay,
				}, nil, nil, logger)

				// The first cycle only back-fills; goals show up from the
				// second cycle on.
				for i := 0; i < count; i++ {
					active, goals := w.Cycle(ctx)
					logger.Info("Cycle finished", "n", i+1, "active", active, "new_goals", goals)
					if i < count-1 {
						select {
						case <-ctx.Done():
							return nil
						case <-time.After(delay):
						}
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 2, "Number of cycles to run")
	cmd.Flags().DurationVar(&delay, "delay", 15*time.Second, "Delay between cycles")
	return cmd
}

// --------------------------------------------------------------------------
// scan command — dry-run reminder scan
// --------------------------------------------------------------------------

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List events in the reminder horizon and when each would fire",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCtl(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				leagues := buildLeagues(cfg, pool)
				sent := store.LoadIDList(filepath.Join(cfg.DataDir, "sent_reminders.json"), cfg.MaxSentReminders, logger)
				now := time.Now()

				for _, adapter := range leagues.All() {
					events, err := adapter.ListAll(ctx)
					if err != nil {
						logger.Warn("Calendar scan failed", "league", adapter.ID(), "error", err)
						continue
					}
					for _, e := range events {
						if e.State != league.StateScheduled {
							continue
						}
						until := e.StartTime.Sub(now)
						if until <= 0 || until > 24*time.Hour {
							continue
						}
						logger.Info("Would remind",
							"league", e.LeagueID, "event", e.ID,
							"start", e.StartTime.Format(time.RFC3339),
							"notify_at", e.StartTime.Add(-cfg.ReminderOffset).Format(time.RFC3339),
							"already_sent", sent.Contains(e.ID))
					}
				}
				return nil
			})
		},
	}
	return cmd
}

// --------------------------------------------------------------------------
// stats command
// --------------------------------------------------------------------------

func statsCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Fetch and print stats from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(addr + "/api/v1/stats")
			if err != nil {
				return fmt.Errorf("fetch stats: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("fetch stats: %s", resp.Status)
			}

			var stats map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
				return fmt.Errorf("decode stats: %w", err)
			}
			out, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8000", "Server base URL")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func buildChannels(ctx context.Context, cfg *config.Config) ([]notify.Channel, error) {
	var channels []notify.Channel
	if cfg.FCMCredentialsFile != "" {
		fcmChannel, err := fcm.New(ctx, cfg.FCMCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("initialize FCM: %w", err)
		}
		channels = append(channels, fcmChannel)
	}
	if cfg.TelegramToken != "" {
		tgChannel, err := telegram.New(cfg.TelegramToken, cfg.TelegramTopicChats)
		if err != nil {
			return nil, fmt.Errorf("initialize Telegram: %w", err)
		}
		channels = append(channels, tgChannel)
	}
	return channels, nil
}

func buildLeagues(cfg *config.Config, pool *db.Pool) *league.Registry {
	appCache := cache.New(clock.System(), map[cache.Category]cache.Durations{
		cache.CategorySchedule: {Base: cfg.ScheduleCacheBase, Live: cfg.ScheduleCacheLive},
		cache.CategoryDetails:  {Base: cfg.DetailsCacheBase, Live: cfg.DetailsCacheLive},
		cache.CategoryMedia:    {Base: cfg.MediaCacheBase},
	})

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
	leagues.Register(manual.New(manual.NewStore(pool.Pool), logger))
	return leagues
}

// runCtl handles config loading, DB connection, and context cancellation.
func runCtl(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
