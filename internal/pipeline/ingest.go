package pipeline

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vaquero/internal"
	"vaquero/internal/storage"
)

// FirstRecordID is the id of the first accepted row in every run.
const FirstRecordID = 100

const (
	InterchangeFileName = "categorized_discounts.csv"
	DistributedFileName = "data.json"
)

// Source yields upstream rows in sheet order.
type Source interface {
	FetchRows(ctx context.Context) ([]internal.RawRow, error)
	Describe() string
}

type IngestResult struct {
	TraceID   string
	Source    string
	Records   []internal.DiscountRecord
	Rejected  []NormalizeResult
	Artifacts []string
	Duration  time.Duration
}

// Ingest normalizes rows in order and numbers accepted records from
// FirstRecordID. Rejected rows do not consume an id.
func Ingest(rows []internal.RawRow, normalizer *Normalizer) IngestResult {
	result := IngestResult{Records: make([]internal.DiscountRecord, 0, len(rows))}
	nextID := FirstRecordID
	for _, row := range rows {
		outcome := normalizer.Normalize(row)
		if outcome.Status != internal.RowAccepted {
			result.Rejected = append(result.Rejected, outcome)
			continue
		}
		outcome.Record.ID = nextID
		nextID++
		result.Records = append(result.Records, outcome.Record)
	}
	return result
}

type IngestionService struct {
	db         *storage.DB
	normalizer *Normalizer
	outputDir  string
}

// NewIngestionService writes artifacts to outputDir and, when db is non-nil,
// replaces the stored snapshot.
func NewIngestionService(db *storage.DB, normalizer *Normalizer, outputDir string) *IngestionService {
	return &IngestionService{db: db, normalizer: normalizer, outputDir: outputDir}
}

func (s *IngestionService) Run(ctx context.Context, src Source) (IngestResult, error) {
	start := time.Now()
	traceID := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{"component": "ingest", "trace_id": traceID, "source": src.Describe()})

	rows, err := src.FetchRows(ctx)
	if err != nil {
		if !errors.Is(err, internal.ErrSourceUnavailable) {
			err = &internal.FetchError{Source: src.Describe(), Attempts: 1, Err: err}
		}
		log.WithError(err).Error("source fetch failed, nothing written")
		return IngestResult{}, err
	}

	result := Ingest(rows, s.normalizer)
	result.TraceID = traceID
	result.Source = src.Describe()
	for _, rejected := range result.Rejected {
		log.WithFields(logrus.Fields{"line": rejected.LineNo, "reason": rejected.Reason}).Debug("row skipped")
	}

	// Both artifacts are rendered before anything is replaced, and renamed
	// only after the store snapshot is swapped.
	csvPath := filepath.Join(s.outputDir, InterchangeFileName)
	jsonPath := filepath.Join(s.outputDir, DistributedFileName)
	staged, err := StageFiles([]Artifact{
		{Path: csvPath, Render: func(w io.Writer) error { return WriteInterchangeCSV(w, result.Records) }},
		{Path: jsonPath, Render: func(w io.Writer) error { return WriteDistributedJSON(w, result.Records) }},
	})
	if err != nil {
		return IngestResult{}, err
	}
	defer staged.Discard()

	result.Duration = time.Since(start)
	if s.db != nil {
		if err := s.db.ReplaceDiscounts(result.Records); err != nil {
			log.WithError(err).Error("snapshot replace failed, artifacts not written")
			return IngestResult{}, err
		}
	}
	if err := staged.Commit(); err != nil {
		return IngestResult{}, err
	}
	result.Artifacts = []string{csvPath, jsonPath}

	if s.db != nil {
		_ = s.db.InsertRun(internal.IngestRun{
			TraceID:    traceID,
			Source:     result.Source,
			Accepted:   len(result.Records),
			Rejected:   len(result.Rejected),
			DurationMs: result.Duration.Milliseconds(),
		})
	}

	log.WithFields(logrus.Fields{
		"accepted":    len(result.Records),
		"rejected":    len(result.Rejected),
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("ingestion complete")
	return result, nil
}
