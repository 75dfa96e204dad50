package refresh

import (
	"context"
	"time"

	"vaquero/internal"
	"vaquero/internal/config"
	"vaquero/internal/pipeline"
	"vaquero/internal/source"
	"vaquero/internal/storage"
)

// NewIngestion builds the ingestion service with the configured category
// overrides.
func NewIngestion(cfg config.Config, db *storage.DB, outDir string) (*pipeline.IngestionService, error) {
	rules, err := pipeline.LoadNameRules(cfg.CategoryOverridesPath)
	if err != nil {
		return nil, err
	}
	normalizer := pipeline.NewNormalizer(pipeline.NewClassifier(rules))
	return pipeline.NewIngestionService(db, normalizer, outDir), nil
}

// NewFromConfig builds a refresher over the configured source provider.
func NewFromConfig(cfg config.Config, db *storage.DB) (*Service, error) {
	ingestion, err := NewIngestion(cfg, db, cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	newSource := func(ctx context.Context) (pipeline.Source, error) {
		return source.New(ctx, cfg, cfg.SourceProvider, "", "")
	}
	return NewService(db, ingestion, newSource, time.Duration(cfg.RefreshIntervalSec)*time.Second), nil
}

type Status struct {
	LastSuccess string
	LatestRun   *internal.IngestRun
	Counts      []storage.CategoryCount
}

// ReadStatus reports the last successful ingest, the latest run and the
// snapshot size per category. LastSuccess is empty when nothing succeeded yet.
func ReadStatus(db *storage.DB) (Status, error) {
	var status Status
	stamp, err := db.GetMetadata(LastSuccessKey)
	if err != nil {
		return status, err
	}
	if stamp != nil {
		status.LastSuccess = *stamp
	}
	if status.LatestRun, err = db.LatestRun(); err != nil {
		return status, err
	}
	status.Counts, err = db.CountByCategory()
	return status, err
}
