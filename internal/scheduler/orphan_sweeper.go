package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/devure/internal/content"
	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/logger"
	"github.com/MrSnakeDoc/devure/internal/metrics"
	"github.com/MrSnakeDoc/devure/internal/objectstore"
)

const (
	// DefaultSweepGrace is how old a blob must be before it can be swept.
	// A create in flight has uploaded its body but not yet inserted its
	// record; the grace keeps the sweeper away from it.
	DefaultSweepGrace = 24 * time.Hour
)

// SweepReport lists the orphaned keys found per kind.
type SweepReport struct {
	Orphans map[domain.Kind][]string
	DryRun  bool
}

// Count returns the number of orphans across kinds.
func (r *SweepReport) Count() int {
	n := 0
	for _, keys := range r.Orphans {
		n += len(keys)
	}
	return n
}

// OrphanSweeper deletes body blobs that no record points to anymore.
type OrphanSweeper struct {
	services []*content.Service
	metrics  metrics.Recorder
	logger   logger.Logger
	interval time.Duration
	grace    time.Duration
	dryRun   bool
	now      func() time.Time
	stopCh   chan struct{}
}

// NewOrphanSweeper creates a new orphan sweeper
func NewOrphanSweeper(
	services []*content.Service,
	rec metrics.Recorder,
	log logger.Logger,
	interval time.Duration,
	grace time.Duration,
	dryRun bool,
) *OrphanSweeper {
	if grace == 0 {
		grace = DefaultSweepGrace
	}
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &OrphanSweeper{
		services: services,
		metrics:  rec,
		logger:   log.Named("sweeper"),
		interval: interval,
		grace:    grace,
		dryRun:   dryRun,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a sweep immediately, then every interval. A zero interval
// disables the periodic sweep.
func (sw *OrphanSweeper) Start(ctx context.Context) error {
	if sw.interval <= 0 {
		sw.logger.Info("orphan sweeper disabled")
		return nil
	}

	if _, err := sw.Sweep(ctx); err != nil {
		sw.logger.Warn("initial orphan sweep failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(sw.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := sw.Sweep(ctx); err != nil {
					sw.logger.Error("orphan sweep failed",
						logger.Error(err))
				}
			case <-sw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (sw *OrphanSweeper) Stop() {
	close(sw.stopCh)
}

// Sweep walks every kind's prefix once. A kind that fails to list is
// reported and the remaining kinds are still swept.
func (sw *OrphanSweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	sw.logger.Info("running orphan sweep",
		logger.Bool("dry_run", sw.dryRun),
		logger.Duration("grace", sw.grace))

	report := &SweepReport{
		Orphans: make(map[domain.Kind][]string),
		DryRun:  sw.dryRun,
	}
	now := sw.now()

	var firstErr error
	for _, svc := range sw.services {
		keys, err := sw.sweepKind(ctx, svc, now)
		if err != nil {
			sw.logger.Warn("failed to sweep kind",
				logger.String("kind", string(svc.Kind())),
				logger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(keys) > 0 {
			report.Orphans[svc.Kind()] = keys
		}
		if !sw.dryRun {
			sw.metrics.RecordOrphansSwept(string(svc.Kind()), len(keys))
		}
	}

	if n := report.Count(); n > 0 {
		sw.logger.Info("orphan sweep completed",
			logger.Int("orphans", n),
			logger.Bool("dry_run", sw.dryRun))
	} else {
		sw.logger.Debug("no orphans to sweep")
	}

	return report, firstErr
}

// sweepKind returns the orphaned keys of one kind, deleted unless dry-run.
func (sw *OrphanSweeper) sweepKind(ctx context.Context, svc *content.Service, now time.Time) ([]string, error) {
	items, err := svc.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	known := make(map[string]struct{}, len(items))
	for _, it := range items {
		known[it.Slug()] = struct{}{}
	}

	objects, err := svc.Objects().List(ctx, svc.Prefix()+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	var orphans []string
	for _, obj := range objects {
		slug, ok := objectstore.SplitKey(obj.Key, svc.Prefix(), svc.Ext())
		if !ok {
			continue
		}
		if _, exists := known[slug]; exists {
			continue
		}

		age := now.Sub(obj.LastModified)
		if obj.LastModified.IsZero() || age < sw.grace {
			continue
		}

		if !sw.dryRun {
			if err := svc.Objects().Delete(ctx, obj.Key); err != nil {
				sw.logger.Warn("failed to delete orphaned blob",
					logger.String("key", obj.Key),
					logger.Error(err))
				continue
			}
		}

		sw.logger.Info("swept orphaned blob",
			logger.String("key", obj.Key),
			logger.String("age", age.Round(time.Second).String()),
			logger.Bool("dry_run", sw.dryRun))
		orphans = append(orphans, obj.Key)
	}

	return orphans, nil
}
