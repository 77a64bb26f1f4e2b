// Package main implements the frcstats CLI: an API server with a daily
// leaderboard batch job, a one-shot batch pass, and a snapshot viewer.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/312Evan/frcstats/config"
	"github.com/312Evan/frcstats/internal/application/query"
	"github.com/312Evan/frcstats/internal/domain/leaderboard"
	"github.com/312Evan/frcstats/internal/infrastructure/external/statbotics"
	"github.com/312Evan/frcstats/internal/infrastructure/external/tba"
	"github.com/312Evan/frcstats/internal/infrastructure/persistence/file"
	"github.com/312Evan/frcstats/internal/infrastructure/persistence/postgres"
	"github.com/312Evan/frcstats/internal/infrastructure/persistence/redis"
	"github.com/312Evan/frcstats/internal/infrastructure/scheduler"
	"github.com/312Evan/frcstats/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/312Evan/frcstats/internal/interface/http"
	"github.com/312Evan/frcstats/pkg/output"
)

type cli struct {
	Serve    serveCmd    `cmd:"" help:"Run the API server and the daily leaderboard batch job."`
	Generate generateCmd `cmd:"" help:"Run one leaderboard batch pass and exit."`
	Top      topCmd      `cmd:"" help:"Print the persisted leaderboard snapshot."`
}

func main() {
	c := &cli{}
	ctx := kong.Parse(c,
		kong.Name("frcstats"),
		kong.Description("FRC match analytics and ranking tools."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVE
// ══════════════════════════════════════════════════════════════════════════════

// serveCmd runs the HTTP API alongside the scheduled batch job.
type serveCmd struct{}

func (c *serveCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting frcstats",
		"address", cfg.ServerAddress(),
		"storage_backend", cfg.Storage.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	tbaClient, closeTBA, err := newTBAClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeTBA()

	sbConfig := statbotics.DefaultClientConfig()
	sbConfig.BaseURL = cfg.Statbotics.BaseURL
	sbConfig.Timeout = cfg.Statbotics.Timeout
	sbConfig.Logger = log
	sbClient := statbotics.NewClient(sbConfig)

	store, closeStore, err := newSnapshotStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	sched := scheduler.NewScheduler(log)
	job := jobs.NewGenerateLeaderboardJob(tbaClient, tbaClient, store, log, jobs.GenerateLeaderboardConfig{
		Season:      cfg.Leaderboard.Season,
		PacingDelay: cfg.Leaderboard.PacingDelay,
		TopN:        cfg.Leaderboard.TopN,
		Timeout:     4 * time.Hour,
	})
	schedule := scheduler.NewDailySchedule(cfg.Leaderboard.RunHour, cfg.Leaderboard.RunMinute)
	if err := sched.Register(job, schedule, cfg.Leaderboard.RunAtStart); err != nil {
		return fmt.Errorf("register batch job: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler", "error", err)
		}
	}()

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.Server.Host
	httpConfig.Port = cfg.Server.Port
	httpConfig.ReadTimeout = cfg.Server.ReadTimeout
	httpConfig.WriteTimeout = cfg.Server.WriteTimeout
	httpConfig.EnableCORS = cfg.Server.EnableCORS
	httpConfig.EnableMetrics = cfg.Observability.EnableMetrics
	httpConfig.RateLimitPerMinute = cfg.Server.RateLimitPerMinute

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		TeamReviewHandler:     query.NewTeamReviewHandler(tbaClient, sbClient, log),
		PredictMatchHandler:   query.NewPredictMatchHandler(tbaClient, log),
		GetLeaderboardHandler: query.NewGetLeaderboardHandler(store),
		Logger:                log,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop http server gracefully", "error", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE
// ══════════════════════════════════════════════════════════════════════════════

// generateCmd runs one batch pass and exits.
type generateCmd struct {
	Season int `help:"Competition year to rank. Defaults to the current year." default:"0"`
}

func (c *generateCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tbaClient, closeTBA, err := newTBAClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeTBA()

	store, closeStore, err := newSnapshotStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	season := c.Season
	if season == 0 {
		season = cfg.Leaderboard.Season
	}

	job := jobs.NewGenerateLeaderboardJob(tbaClient, tbaClient, store, log, jobs.GenerateLeaderboardConfig{
		Season:      season,
		PacingDelay: cfg.Leaderboard.PacingDelay,
		TopN:        cfg.Leaderboard.TopN,
	})

	if err := job.Run(ctx); err != nil {
		return fmt.Errorf("batch pass: %w", err)
	}

	stats := job.LastRunStats()
	if stats != nil {
		log.Info("batch pass complete",
			"run_id", stats.RunID,
			"season", stats.Season,
			"duration", stats.Duration.String(),
			"teams_processed", stats.TeamsProcessed,
			"teams_skipped", stats.TeamsSkipped,
			"entries_ranked", stats.EntriesRanked,
		)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TOP
// ══════════════════════════════════════════════════════════════════════════════

// topCmd prints the persisted snapshot as a table.
type topCmd struct {
	Limit int `help:"Maximum number of entries to print." default:"25"`
}

func (c *topCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newSnapshotStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	snapshot, err := store.Read(ctx)
	if err != nil {
		if errors.Is(err, leaderboard.ErrNoSnapshot) {
			return errors.New("no snapshot has been generated yet, run `frcstats generate` first")
		}
		return fmt.Errorf("read snapshot: %w", err)
	}

	entries := snapshot.Entries
	if c.Limit > 0 && len(entries) > c.Limit {
		entries = entries[:c.Limit]
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(int(e.Rank)),
			strconv.Itoa(e.TeamNumber),
			e.Nickname,
			fmt.Sprintf("%d-%d-%d", e.Wins, e.Losses, e.Ties),
			fmt.Sprintf("%.3f", e.Ratio),
		})
	}

	fmt.Printf("Season %d leaderboard, generated %s\n",
		snapshot.Season, snapshot.GeneratedAt.Format(time.RFC3339))
	return output.Table(os.Stdout, []string{"Rank", "Team", "Nickname", "W-L-T", "Ratio"}, rows)
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the process logger from observability settings.
func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// newTBAClient wires The Blue Alliance client, with the sqlite response cache
// when a cache path is configured.
func newTBAClient(ctx context.Context, cfg *config.Config, log *slog.Logger) (*tba.Client, func(), error) {
	if cfg.TBA.AuthKey == "" {
		return nil, nil, errors.New("tba auth key is required (set FRCSTATS_TBA__AUTH_KEY)")
	}

	clientConfig := tba.DefaultClientConfig(cfg.TBA.AuthKey)
	clientConfig.BaseURL = cfg.TBA.BaseURL
	clientConfig.Timeout = cfg.TBA.Timeout
	clientConfig.Logger = log

	closeCache := func() {}
	if cfg.TBA.CachePath != "" {
		cache, err := tba.OpenResponseCache(ctx, cfg.TBA.CachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open response cache: %w", err)
		}
		clientConfig.Cache = cache
		closeCache = func() {
			if err := cache.Close(); err != nil {
				log.Error("failed to close response cache", "error", err)
			}
		}
		log.Info("tba response cache enabled", "path", cfg.TBA.CachePath)
	}

	return tba.NewClient(clientConfig), closeCache, nil
}

// newSnapshotStore builds the configured snapshot store backend.
func newSnapshotStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (leaderboard.SnapshotStore, func(), error) {
	switch cfg.Storage.Backend {
	case "file":
		return file.NewStore(cfg.Storage.FilePath), func() {}, nil

	case "redis":
		host, portStr, err := net.SplitHostPort(cfg.Storage.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis address %q: %w", cfg.Storage.RedisAddr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis port %q: %w", portStr, err)
		}

		redisConfig := redis.DefaultConfig()
		redisConfig.Host = host
		redisConfig.Port = port
		redisConfig.Password = cfg.Storage.RedisPassword
		redisConfig.DB = cfg.Storage.RedisDB

		store, err := redis.NewStore(redisConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error("failed to close redis store", "error", err)
			}
		}, nil

	case "postgres":
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		store, err := postgres.NewSnapshotStore(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("prepare snapshot schema: %w", err)
		}
		return store, func() { conn.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
