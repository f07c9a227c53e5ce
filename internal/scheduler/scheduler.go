// Package scheduler drives the polling loop: for each configured source it
// runs fetch, parse, dedup, and notify in order, isolates per-source
// failures, and sleeps a fixed interval between cycles.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/licitawatch/internal/domain"
	"github.com/jonesrussell/licitawatch/internal/fetch"
	"github.com/jonesrussell/licitawatch/internal/logger"
	"github.com/jonesrussell/licitawatch/internal/notify"
	"github.com/jonesrussell/licitawatch/internal/parse"
)

// Fetcher obtains raw page content for a source.
type Fetcher interface {
	Fetch(ctx context.Context, src domain.Source) (*fetch.Result, error)
}

// ParserRegistry resolves parser ids to implementations.
type ParserRegistry interface {
	Get(id string) (parse.Parser, error)
}

// Deduper decides first sightings, persisting fingerprints as it goes.
type Deduper interface {
	IsNew(ctx context.Context, notice *domain.Notice) (bool, error)
}

// Notifier delivers one alert message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Scheduler owns the monitoring loop over the configured sources.
type Scheduler struct {
	sources  []domain.Source
	fetcher  Fetcher
	parsers  ParserRegistry
	dedup    Deduper
	notifier Notifier
	log      logger.Interface
	interval time.Duration
}

// New creates a Scheduler. Sources are iterated in the given order.
func New(
	sources []domain.Source,
	fetcher Fetcher,
	parsers ParserRegistry,
	dedup Deduper,
	notifier Notifier,
	log logger.Interface,
	interval time.Duration,
) *Scheduler {
	return &Scheduler{
		sources:  sources,
		fetcher:  fetcher,
		parsers:  parsers,
		dedup:    dedup,
		notifier: notifier,
		log:      log.WithComponent("scheduler"),
		interval: interval,
	}
}

// Run executes polling cycles until the context is cancelled. Cancellation
// during the inter-cycle sleep or between sources ends the loop cleanly; a
// source-level failure never does.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("monitor started",
		"sources", len(s.sources),
		"poll_interval", s.interval,
	)

	for {
		s.RunCycle(ctx)

		select {
		case <-ctx.Done():
			s.log.Info("monitor stopped")
			return nil
		case <-time.After(s.interval):
		}
	}
}

// RunCycle checks every source once, in configured order. Errors are
// isolated per source: one misbehaving portal never halts monitoring of the
// others.
func (s *Scheduler) RunCycle(ctx context.Context) {
	runID := uuid.NewString()
	log := s.log.With("run_id", runID)
	start := time.Now()

	for i := range s.sources {
		if ctx.Err() != nil {
			return
		}

		src := s.sources[i]
		if err := s.checkSource(ctx, src, log.WithSource(src.Name)); err != nil {
			log.WithSource(src.Name).Error("source check failed", "error", err)
		}
	}

	log.Info("cycle complete", "elapsed", time.Since(start))
}

// checkSource runs one source through the pipeline stages.
func (s *Scheduler) checkSource(ctx context.Context, src domain.Source, log logger.Interface) error {
	state := StateFetching
	log.Debug("state change", "state", state)

	result, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	for _, warning := range result.Warnings {
		log.Warn("fetch degraded", "warning", warning)
	}

	state = StateParsing
	log.Debug("state change", "state", state)

	notices, err := s.parsePages(src, result.Pages)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	notices = applyThreshold(src, notices)
	log.Info("source checked", "notices", len(notices))

	return s.dedupAndNotify(ctx, src, notices, log)
}

// parsePages runs the source's parser over every fetched page.
func (s *Scheduler) parsePages(src domain.Source, pages []string) ([]domain.Notice, error) {
	parser, err := s.parsers.Get(src.ParserID)
	if err != nil {
		return nil, err
	}

	var notices []domain.Notice
	for _, page := range pages {
		parsed, parseErr := parser.Parse(page, src.BaseURL)
		if parseErr != nil {
			return nil, parseErr
		}
		notices = append(notices, parsed...)
	}

	for i := range notices {
		notices[i].SourceName = src.Name
	}
	return notices, nil
}

// dedupAndNotify surfaces the new notices. A store error aborts the source's
// cycle; a delivery failure is logged and does not (the notice is already
// marked seen, matching the at-most-once guarantee).
func (s *Scheduler) dedupAndNotify(
	ctx context.Context,
	src domain.Source,
	notices []domain.Notice,
	log logger.Interface,
) error {
	state := StateDeduping
	log.Debug("state change", "state", state)

	newCount := 0
	for i := range notices {
		notice := &notices[i]

		isNew, err := s.dedup.IsNew(ctx, notice)
		if err != nil {
			return fmt.Errorf("dedup: %w", err)
		}

		if !isNew {
			if src.Ordered {
				// Newest-first feeds: everything past the first
				// known item has been seen in an earlier cycle.
				log.Debug("known item reached, stopping early",
					"checked", i+1,
					"skipped", len(notices)-i-1,
				)
				break
			}
			continue
		}

		state = StateNotifying
		log.Debug("state change", "state", state)

		newCount++
		log.Info("new notice", "title", notice.Title, "url", notice.URL)

		if sendErr := s.notifier.Send(ctx, notify.FormatMessage(notice)); sendErr != nil {
			log.Error("notification failed", "title", notice.Title, "error", sendErr)
		}

		state = StateDeduping
		log.Debug("state change", "state", state)
	}

	if newCount > 0 {
		log.Info("new notices surfaced", "count", newCount)
	}
	return nil
}

// applyThreshold drops notices whose published text carries a year older
// than the source's stop threshold. A single fetched page can straddle the
// threshold boundary, so filtering happens per record, not per page.
func applyThreshold(src domain.Source, notices []domain.Notice) []domain.Notice {
	if src.StopThreshold <= 0 {
		return notices
	}

	kept := notices[:0]
	for _, n := range notices {
		if year, ok := fetch.TrailingYear(n.Published); ok && year < src.StopThreshold {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}
