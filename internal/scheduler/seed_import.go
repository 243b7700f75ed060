package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/devure/internal/content"
	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/logger"
	"github.com/MrSnakeDoc/devure/internal/metrics"
	"github.com/MrSnakeDoc/devure/internal/sources/seed"
)

// ImportReport counts what one import did per kind.
type ImportReport struct {
	Created map[domain.Kind]int
	Skipped map[domain.Kind]int
	Failed  map[domain.Kind]int
}

func newImportReport() *ImportReport {
	return &ImportReport{
		Created: make(map[domain.Kind]int),
		Skipped: make(map[domain.Kind]int),
		Failed:  make(map[domain.Kind]int),
	}
}

// Total returns the number of created, skipped and failed entries.
func (r *ImportReport) Total() (created, skipped, failed int) {
	for _, n := range r.Created {
		created += n
	}
	for _, n := range r.Skipped {
		skipped += n
	}
	for _, n := range r.Failed {
		failed += n
	}
	return created, skipped, failed
}

// SeedImporter imports a seed file into the content services. Existing
// slugs are never touched, so an import can be replayed safely.
type SeedImporter struct {
	loader        *seed.Loader
	mapper        *seed.Mapper
	services      map[domain.Kind]*content.Service
	metrics       metrics.Recorder
	logger        logger.Logger
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewSeedImporter creates a new seed importer. manualTrigger may be nil
// when the importer only runs once.
func NewSeedImporter(
	seedFile string,
	services map[domain.Kind]*content.Service,
	rec metrics.Recorder,
	log logger.Logger,
	manualTrigger chan struct{},
) *SeedImporter {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &SeedImporter{
		loader:        seed.NewLoader(seedFile),
		mapper:        seed.NewMapper(),
		services:      services,
		metrics:       rec,
		logger:        log.Named("seed"),
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports once, then re-imports whenever manualTrigger fires.
func (si *SeedImporter) Start(ctx context.Context) error {
	if _, err := si.Import(ctx); err != nil {
		return fmt.Errorf("initial seed import failed: %w", err)
	}

	go func() {
		for {
			select {
			case <-si.manualTrigger:
				si.logger.Info("manual seed import triggered")
				if _, err := si.Import(ctx); err != nil {
					si.logger.Error("seed import failed",
						logger.Error(err))
				}
			case <-si.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the importer
func (si *SeedImporter) Stop() {
	close(si.stopCh)
}

// Import loads the seed file and creates every entry whose slug is not
// stored yet. An entry that fails to create is logged and counted; it does
// not abort the remaining entries.
func (si *SeedImporter) Import(ctx context.Context) (*ImportReport, error) {
	si.logger.Info("importing seed file",
		logger.String("file", si.loader.Path()))

	file, err := si.loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load seed: %w", err)
	}

	report := newImportReport()
	for _, kind := range domain.Kinds {
		svc, ok := si.services[kind]
		if !ok {
			continue
		}

		inputs, err := si.mapper.Map(file, kind)
		if err != nil {
			return report, fmt.Errorf("failed to map seed: %w", err)
		}

		for _, in := range inputs {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			si.importOne(ctx, svc, in, report)
		}

		si.metrics.RecordSeedImport(string(kind), report.Created[kind], report.Skipped[kind])
	}

	created, skipped, failed := report.Total()
	si.logger.Info("seed import completed",
		logger.Int("created", created),
		logger.Int("skipped", skipped),
		logger.Int("failed", failed))

	return report, nil
}

func (si *SeedImporter) importOne(ctx context.Context, svc *content.Service, in content.CreateInput, report *ImportReport) {
	kind := svc.Kind()
	slug := seed.SlugOf(in)

	_, err := svc.GetBySlug(ctx, slug)
	switch {
	case err == nil:
		report.Skipped[kind]++
		return
	case !errors.Is(err, domain.ErrNotFound):
		report.Failed[kind]++
		si.logger.Warn("failed to look up seed entry",
			logger.String("kind", string(kind)),
			logger.String("slug", slug),
			logger.Error(err))
		return
	}

	if _, err := svc.Create(ctx, in); err != nil {
		// a concurrent writer may have claimed the slug since the lookup
		if errors.Is(err, domain.ErrDuplicateSlug) {
			report.Skipped[kind]++
			return
		}
		report.Failed[kind]++
		si.logger.Warn("failed to import seed entry",
			logger.String("kind", string(kind)),
			logger.String("slug", slug),
			logger.Error(err))
		return
	}
	report.Created[kind]++
}
