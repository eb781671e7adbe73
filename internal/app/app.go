package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsRadar/internal/classify"
	"NewsRadar/internal/config"
	"NewsRadar/internal/infrastructure/extract"
	"NewsRadar/internal/infrastructure/rss"
	"NewsRadar/internal/infrastructure/storage"
	"NewsRadar/internal/infrastructure/telegram"
	"NewsRadar/internal/infrastructure/timeline"
	"NewsRadar/internal/logging"
	"NewsRadar/internal/sentiment"
	"NewsRadar/internal/source"
	"NewsRadar/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	store      *storage.SQLiteRepository
	supervisor *usecase.Supervisor
}

// New builds a runnable application instance. The seen-ledger is opened
// eagerly so a bad storage path fails startup instead of the first cycle.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.NewSQLiteRepository(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open seen ledger: %w", err)
	}

	registry := source.NewRegistry()
	registry.Register(rss.NewScanner(nil))
	registry.Register(timeline.NewScanner(nil, nil, baseLogger.With("component", "scanner.timeline")))

	extractClient := extract.NewClient(nil)

	notifier := telegram.NewNotifier(
		cfg.Telegram.BotToken,
		cfg.Telegram.ChatID,
		cfg.Telegram.ThreadID,
		baseLogger.With("component", "telegram"),
	)

	poller := usecase.NewPoller(usecase.PollerDeps{
		Registry:   registry,
		Store:      store,
		Classifier: classify.New(cfg.Poller.StrictMatch),
		Scorer:     sentiment.NewEnsemble(cfg.Sentiment, baseLogger.With("component", "sentiment")),
		Notifier:   notifier,
		Pages:      extractClient,
		Extractor:  extractClient,
		Logger:     baseLogger.With("component", "poller"),
	}, cfg.Poller)

	supervisor := usecase.NewSupervisor(
		poller,
		cfg.Poller.Interval(),
		time.Minute,
		baseLogger.With("component", "supervisor"),
	)

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		store:      store,
		supervisor: supervisor,
	}, nil
}

// Run starts supervised polling and blocks until ctx is cancelled. An
// empty only value runs every enabled source.
func (a *Application) Run(ctx context.Context, only string) error {
	sources, err := a.selectSources(only)
	if err != nil {
		return err
	}

	a.logger.Info("starting",
		"sources", len(sources),
		"interval", a.cfg.Poller.Interval().String(),
		"db", a.cfg.Storage.Path)

	if err := a.supervisor.Start(ctx, sources); err != nil {
		return err
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received, stopping tasks")
	a.supervisor.Shutdown()
	a.logger.Info("all tasks stopped")

	return a.store.Close()
}

// Status prints per-source seen counts from the durable store.
func (a *Application) Status(ctx context.Context) error {
	defer a.store.Close()

	stats, err := a.store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("read store stats: %w", err)
	}

	fmt.Printf("store: %s\n", a.cfg.Storage.Path)
	for _, src := range a.cfg.Sources {
		state := "enabled"
		if !src.IsEnabled() {
			state = "disabled"
		}
		fmt.Printf("  %-20s %-8s seen=%d\n", src.Name, state, stats[src.Name])
	}
	return nil
}

func (a *Application) selectSources(only string) ([]config.SourceConfig, error) {
	if only == "" {
		return a.cfg.Sources, nil
	}
	for _, src := range a.cfg.Sources {
		if src.Name == only {
			return []config.SourceConfig{src}, nil
		}
	}
	return nil, fmt.Errorf("unknown source %q", only)
}
