package audit

import (
	"context"
	"log/slog"
	"time"

	auditrepo "portfolio-admin/internal/audit/repository"
)

const purgeTimeout = time.Minute

// Purger deletes audit entries older than a retention period.
type Purger struct {
	repo      auditrepo.Repository
	retention time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewPurger returns a Purger that keeps retentionDays of history. retentionDays <= 0 disables purging.
func NewPurger(repo auditrepo.Repository, retentionDays int, log *slog.Logger) *Purger {
	if log == nil {
		log = slog.Default()
	}
	return &Purger{
		repo:      repo,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		log:       log,
		now:       time.Now,
	}
}

// Purge removes expired entries and returns how many were deleted.
func (p *Purger) Purge(ctx context.Context) (int64, error) {
	if p.repo == nil || p.retention <= 0 {
		return 0, nil
	}
	cutoff := p.now().UTC().Add(-p.retention)
	n, err := p.repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	p.log.Info("audit: purged old entries", "deleted", n, "before", cutoff)
	return n, nil
}

// Run is a cron job body: it bounds Purge with a timeout and logs failures.
func (p *Purger) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()
	if _, err := p.Purge(ctx); err != nil {
		p.log.Error("audit: purge failed", "err", err)
	}
}
