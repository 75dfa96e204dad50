package refresh

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"vaquero/internal/logging"
	"vaquero/internal/pipeline"
	"vaquero/internal/storage"
)

// LastSuccessKey is the metadata key holding the time of the last good run.
const LastSuccessKey = "ingest.last_success"

// SourceFactory builds the source for one cycle so credentials and config
// changes are picked up between runs.
type SourceFactory func(ctx context.Context) (pipeline.Source, error)

type Service struct {
	db        *storage.DB
	ingestion *pipeline.IngestionService
	newSource SourceFactory
	interval  time.Duration
}

func NewService(db *storage.DB, ingestion *pipeline.IngestionService, newSource SourceFactory, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{db: db, ingestion: ingestion, newSource: newSource, interval: interval}
}

// Run ingests once per interval until ctx is done. A failed cycle leaves the
// previous snapshot in place.
func (s *Service) Run(ctx context.Context) error {
	log := logging.Component("refresh")
	for {
		if err := s.RunCycle(ctx); err != nil {
			log.WithError(err).Error("refresh cycle failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) error {
	src, err := s.newSource(ctx)
	if err != nil {
		return err
	}

	result, err := s.ingestion.Run(ctx, src)
	if err != nil {
		return err
	}

	if s.db != nil {
		if err := s.db.SetMetadata(LastSuccessKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}

	logging.Component("refresh").WithFields(logrus.Fields{
		"trace_id": result.TraceID,
		"accepted": len(result.Records),
		"rejected": len(result.Rejected),
	}).Info("refresh cycle done")
	return nil
}
