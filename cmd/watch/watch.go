// Package watch implements the long-running monitor command.
package watch

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/licitawatch/internal/browser"
	"github.com/jonesrussell/licitawatch/internal/config"
	"github.com/jonesrussell/licitawatch/internal/database"
	"github.com/jonesrussell/licitawatch/internal/dedup"
	"github.com/jonesrussell/licitawatch/internal/fetch"
	"github.com/jonesrussell/licitawatch/internal/logger"
	"github.com/jonesrussell/licitawatch/internal/notify"
	"github.com/jonesrussell/licitawatch/internal/parse"
	"github.com/jonesrussell/licitawatch/internal/scheduler"
	"github.com/jonesrussell/licitawatch/internal/sources"
)

// Command returns the watch command. cfgFile and debug point at the root
// command's persistent flags.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll all configured sources and notify on new notices",
		Long: `Watch runs the monitoring loop: each cycle fetches every configured
source, parses the notices, filters the ones already seen, and sends a
Telegram message for each new one. The loop runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), *cfgFile, *debug)
		},
	}
}

func run(ctx context.Context, cfgFile string, debug bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if debug {
		cfg.Log.Level = "debug"
	}
	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		Encoding:    cfg.Log.Encoding,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	srcs, err := sources.NewLoader(cfg.SourcesFile).LoadSources()
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database", "error", closeErr)
		}
	}()

	repo := database.NewNoticeRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	client := &http.Client{Timeout: cfg.Fetch.RequestTimeout}

	launcher := browser.NewChromeLauncher(ctx)
	defer launcher.Shutdown()

	fetcher := fetch.New(client, launcher, log, fetch.Defaults{
		MaxSteps:    cfg.Fetch.MaxSteps,
		StepDelay:   cfg.Fetch.StepDelay,
		WaitTimeout: cfg.Fetch.WaitTimeout,
	})

	notifier := notify.New(client, log, notify.Config{
		Token:      cfg.Telegram.Token,
		ChatID:     cfg.Telegram.ChatID,
		MaxRetries: cfg.Notify.MaxRetries,
	})

	sched := scheduler.New(
		srcs,
		fetcher,
		parse.DefaultRegistry(client),
		dedup.New(repo),
		notifier,
		log,
		cfg.PollInterval,
	)

	return sched.Run(ctx)
}
