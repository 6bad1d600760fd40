package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-relay/app/api"
	"github.com/lysyi3m/rss-relay/app/cfg"
	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/delivery"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/metrics"
	"github.com/lysyi3m/rss-relay/app/pipeline"
	"github.com/lysyi3m/rss-relay/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		setupLogger(false)
		slog.Error("Failed to load configuration", "severity", "critical", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(appCfg); err != nil {
		slog.Error("RSS Relay stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(appCfg *cfg.Cfg) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting RSS Relay", "version", appCfg.Version, "store", appCfg.StoreDriver, "once", appCfg.Once)

	registry, err := feed.LoadRegistry(appCfg.FeedsFile)
	if err != nil {
		return fmt.Errorf("failed to load feed registry: %w", err)
	}
	slog.Info("Feed registry loaded", "sources", registry.Len(), "file", appCfg.FeedsFile)

	repo, err := openStore(ctx, appCfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	ledger := database.NewLedger(repo, database.ParseReadPolicy(appCfg.DedupReadPolicy))

	messenger, err := delivery.NewTelegramMessenger(appCfg.TelegramToken, appCfg.TelegramChannel, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		return err
	}

	fetcher := feed.NewFetcher(
		registry,
		&http.Client{},
		feed.NewNormalizer(appCfg.MaxSummaryLength, appCfg.Location, appCfg.TimezoneLabel),
		feed.FetcherOptions{
			UserAgent:   appCfg.UserAgent,
			Timeout:     appCfg.FetchTimeout,
			MaxArticles: appCfg.MaxArticlesPerFeed,
			Workers:     appCfg.FetchWorkers,
		},
	)

	relayMetrics := metrics.New()
	orchestrator := pipeline.NewOrchestrator(fetcher, ledger, delivery.NewEngine(messenger, appCfg.SendDelay), pipeline.Options{
		RetentionDays: appCfg.RetentionDays,
		PurgePolicy:   pipeline.ParsePurgePolicy(appCfg.PurgeMode),
		Location:      appCfg.Location,
		Metrics:       relayMetrics,
	})

	if appCfg.Once {
		task := tasks.NewRunCycleTask(orchestrator, tasks.TriggerOnce)
		return task.Execute(ctx)
	}

	trigger, cadence, err := buildTrigger(appCfg)
	if err != nil {
		return err
	}

	if !appCfg.NoAnnounce {
		delivery.Announce(ctx, messenger, registry.Names(), cadence)
	}

	scheduler := tasks.NewScheduler(orchestrator, trigger, tasks.Options{RunOnStartup: !appCfg.SkipStartupRun})
	scheduler.Start()
	defer scheduler.Stop()

	var httpServer *http.Server
	serverErrChan := make(chan error, 1)

	if appCfg.Port != "" {
		handler := api.NewHandler(registry, ledger, orchestrator.Stats(), scheduler, relayMetrics.Handler(), api.Info{
			Version:     appCfg.Version,
			Channel:     appCfg.TelegramChannel,
			Trigger:     trigger.String(),
			StoreDriver: appCfg.StoreDriver,
		})

		httpServer = &http.Server{
			Addr:         ":" + appCfg.Port,
			Handler:      api.NewServer(handler, appCfg.APIAccessKey),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			slog.Info("Starting HTTP server", "port", appCfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()
	}

	slog.Info("RSS Relay started", "trigger", trigger.String(), "bot", messenger.Username())

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case runErr = <-serverErrChan:
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}

	return runErr
}

func openStore(ctx context.Context, appCfg *cfg.Cfg) (database.Repository, error) {
	switch appCfg.StoreDriver {
	case cfg.StoreDriverRedis:
		client, err := database.NewRedisClient(ctx, appCfg.RedisAddr, appCfg.RedisPassword, appCfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return database.NewRedisRepository(client, appCfg.RedisPrefix), nil

	default:
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			return nil, err
		}

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

		return database.NewSQLiteRepository(db), nil
	}
}

func buildTrigger(appCfg *cfg.Cfg) (tasks.Trigger, string, error) {
	if appCfg.CronSchedule != "" {
		trigger, err := tasks.NewCronTrigger(appCfg.CronSchedule, appCfg.Location)
		if err != nil {
			return nil, "", err
		}
		return trigger, "on schedule " + appCfg.CronSchedule, nil
	}

	return tasks.NewIntervalTrigger(appCfg.CheckInterval), delivery.IntervalCadence(appCfg.CheckInterval), nil
}
