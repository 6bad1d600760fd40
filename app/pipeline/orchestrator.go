package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/rss-relay/app/delivery"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/metrics"
)

type ArticleSource interface {
	FetchAll(ctx context.Context) []feed.Article
}

type Ledger interface {
	IsSent(ctx context.Context, url string) bool
	MarkSent(ctx context.Context, url string) error
	DeleteOlderThan(ctx context.Context, days int) int64
}

type Deliverer interface {
	Deliver(ctx context.Context, article feed.Article) delivery.Outcome
	Pause(ctx context.Context) error
}

// PurgePolicy decides when expired delivery records are removed.
type PurgePolicy int

const (
	// PurgeDaily purges on the first cycle of each new calendar day. The
	// first cycle after startup only records the date.
	PurgeDaily PurgePolicy = iota
	// PurgeEveryCycle purges at the end of every cycle.
	PurgeEveryCycle
)

func ParsePurgePolicy(s string) PurgePolicy {
	if s == "every-cycle" {
		return PurgeEveryCycle
	}
	return PurgeDaily
}

type Options struct {
	RetentionDays int
	PurgePolicy   PurgePolicy
	Location      *time.Location
	Metrics       *metrics.Metrics
}

// CycleResult summarises one fetch and deliver pass.
type CycleResult struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Fetched   int           `json:"fetched"`
	Sent      int           `json:"sent"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Purged    int64         `json:"purged"`
	Aborted   bool          `json:"aborted,omitempty"`
}

// Orchestrator runs cycles. Cycles on one orchestrator never overlap.
type Orchestrator struct {
	source    ArticleSource
	ledger    Ledger
	deliverer Deliverer
	opts      Options
	now       func() time.Time

	cycleMu       sync.Mutex
	lastPurgeDate string

	stats *Stats
}

func NewOrchestrator(source ArticleSource, ledger Ledger, deliverer Deliverer, opts Options) *Orchestrator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Orchestrator{
		source:    source,
		ledger:    ledger,
		deliverer: deliverer,
		opts:      opts,
		now:       time.Now,
		stats:     &Stats{},
	}
}

// WithClock replaces the time source, for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

func (o *Orchestrator) Stats() *Stats {
	return o.stats
}

// RunCycle fetches every feed and delivers the articles not sent before, in
// feed order. Cancelling ctx stops delivery after the current article; a
// cancelled cycle does not purge.
func (o *Orchestrator) RunCycle(ctx context.Context) CycleResult {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()

	result := CycleResult{
		ID:        uuid.New().String(),
		StartedAt: o.now(),
	}
	logger := slog.With("cycle_id", result.ID)
	logger.Info("Cycle started")

	articles := o.source.FetchAll(ctx)
	result.Fetched = len(articles)
	logger.Info("Articles fetched", "count", result.Fetched)

	for _, article := range articles {
		if ctx.Err() != nil {
			result.Aborted = true
			break
		}

		if o.ledger.IsSent(ctx, article.URL) {
			result.Skipped++
			continue
		}

		outcome := o.deliverer.Deliver(ctx, article)
		if !outcome.Delivered() {
			result.Failed++
			continue
		}

		// The message is out; record it even if ctx was cancelled meanwhile.
		// A failed write is logged by the ledger and means a re-send next cycle.
		_ = o.ledger.MarkSent(context.WithoutCancel(ctx), article.URL)
		result.Sent++
		if o.opts.Metrics != nil {
			o.opts.Metrics.ObserveSent(string(outcome.Path))
		}
		logger.Debug("Article delivered", "url", article.URL, "source", article.Source, "path", outcome.Path)

		if err := o.deliverer.Pause(ctx); err != nil {
			result.Aborted = true
			break
		}
	}

	if !result.Aborted {
		result.Purged = o.purge(ctx)
	}

	result.Duration = o.now().Sub(result.StartedAt)
	o.record(result)

	logger.Info("Cycle finished",
		"sent", result.Sent,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"purged", result.Purged,
		"aborted", result.Aborted,
		"duration", result.Duration.Round(time.Millisecond))

	return result
}

func (o *Orchestrator) purge(ctx context.Context) int64 {
	if o.opts.PurgePolicy == PurgeEveryCycle {
		return o.ledger.DeleteOlderThan(ctx, o.opts.RetentionDays)
	}

	today := o.now().In(o.opts.Location).Format(time.DateOnly)
	if o.lastPurgeDate == "" {
		o.lastPurgeDate = today
		return 0
	}
	if today == o.lastPurgeDate {
		return 0
	}

	o.lastPurgeDate = today
	return o.ledger.DeleteOlderThan(ctx, o.opts.RetentionDays)
}

func (o *Orchestrator) record(result CycleResult) {
	o.stats.add(result)

	if o.opts.Metrics != nil {
		o.opts.Metrics.ObserveCycle(result.Fetched, result.Skipped, result.Failed, result.Purged, result.Duration, result.StartedAt.Add(result.Duration))
	}
}
