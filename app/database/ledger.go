package database

import (
	"context"
	"log/slog"
	"time"
)

// ReadPolicy decides what IsSent reports when the backend lookup fails.
type ReadPolicy int

const (
	// FailOpen treats the article as not yet sent. A duplicate delivery is
	// preferred over silently losing the article.
	FailOpen ReadPolicy = iota
	// FailClosed treats the article as sent; it is retried next cycle.
	FailClosed
)

func (p ReadPolicy) String() string {
	if p == FailClosed {
		return "fail-closed"
	}
	return "fail-open"
}

func ParseReadPolicy(s string) ReadPolicy {
	if s == "fail-closed" {
		return FailClosed
	}
	return FailOpen
}

// Ledger is the dedup store used by the pipeline. Every operation is safe to
// retry; backend errors never propagate past it except from MarkSent, which
// reports the (already logged) error to the caller.
type Ledger struct {
	repo   Repository
	policy ReadPolicy
	now    func() time.Time
}

func NewLedger(repo Repository, policy ReadPolicy) *Ledger {
	return &Ledger{
		repo:   repo,
		policy: policy,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// IsSent reports whether a delivery record exists for url.
func (l *Ledger) IsSent(ctx context.Context, url string) bool {
	exists, err := l.repo.Exists(ctx, IdentityKey(url))
	if err != nil {
		slog.Warn("Failed to check article status", "url", url, "policy", l.policy.String(), "error", err)
		return l.policy == FailClosed
	}
	return exists
}

// MarkSent upserts the delivery record for url.
func (l *Ledger) MarkSent(ctx context.Context, url string) error {
	if err := l.repo.Upsert(ctx, NewRecord(url, l.now())); err != nil {
		slog.Error("Failed to store delivery record", "url", url, "error", err)
		return err
	}
	return nil
}

// DeleteOlderThan purges records sent more than days ago and returns how many
// were removed. Failures are logged and reported as zero.
func (l *Ledger) DeleteOlderThan(ctx context.Context, days int) int64 {
	cutoff := l.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	deleted, err := l.repo.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		slog.Warn("Cleanup failed (non-fatal)", "retention_days", days, "error", err)
		return 0
	}

	if deleted > 0 {
		slog.Info("Cleanup removed old delivery records", "deleted", deleted, "retention_days", days)
	}
	return deleted
}

func (l *Ledger) Count(ctx context.Context) (int64, error) {
	return l.repo.Count(ctx)
}

func (l *Ledger) Ping(ctx context.Context) error {
	return l.repo.Ping(ctx)
}
