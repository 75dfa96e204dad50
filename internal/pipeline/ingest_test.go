package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"vaquero/internal"
	"vaquero/internal/storage"
)

type staticSource struct {
	rows []internal.RawRow
	err  error
}

func (s staticSource) FetchRows(ctx context.Context) ([]internal.RawRow, error) {
	return s.rows, s.err
}

func (s staticSource) Describe() string { return "static" }

func namedRows(names ...string) []internal.RawRow {
	rows := make([]internal.RawRow, 0, len(names))
	for i, name := range names {
		rows = append(rows, sheetRow(i+2, map[string]string{ColBusinessName: name, ColDiscount: "Free item"}))
	}
	return rows
}

func TestIngestSkipsRejectedRowsWithoutConsumingIDs(t *testing.T) {
	result := Ingest(namedRows("Joe's Tacos & Grill", "", "Valley Tires", "  ", "Rio Cinema"), NewNormalizer(nil))
	if len(result.Records) != 3 || len(result.Rejected) != 2 {
		t.Fatalf("accepted=%d rejected=%d", len(result.Records), len(result.Rejected))
	}
	for i, rec := range result.Records {
		if rec.ID != FirstRecordID+i {
			t.Fatalf("record %d id=%d", i, rec.ID)
		}
	}
	if result.Records[1].BusinessName != "Valley Tires" {
		t.Fatalf("order broken: %s", result.Records[1].BusinessName)
	}
	if result.Rejected[0].LineNo != 3 {
		t.Fatalf("rejected line=%d", result.Rejected[0].LineNo)
	}
}

func TestIngestIDsAreContiguous(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("accepted ids run from 100 without gaps", prop.ForAll(
		func(names []string) bool {
			result := Ingest(namedRows(names...), NewNormalizer(nil))
			if len(result.Records)+len(result.Rejected) != len(names) {
				return false
			}
			for i, rec := range result.Records {
				if rec.ID != FirstRecordID+i || rec.BusinessName == "" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("", " ", "Joe's Tacos", "Acme", "Rio Cinema")),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestIngestionServiceWritesArtifactsAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "vaquero.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	out := filepath.Join(dir, "out")

	svc := NewIngestionService(db, NewNormalizer(nil), out)
	result, err := svc.Run(context.Background(), staticSource{rows: namedRows("Joe's Tacos & Grill", "", "Acme")})
	if err != nil {
		t.Fatal(err)
	}
	if result.TraceID == "" || len(result.Artifacts) != 2 {
		t.Fatalf("result=%+v", result)
	}

	f, err := os.Open(filepath.Join(out, InterchangeFileName))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	fromCSV, err := ReadInterchangeCSV(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(fromCSV) != 2 || fromCSV[1].ID != 101 {
		t.Fatalf("csv records=%+v", fromCSV)
	}

	stored, err := db.ListDiscounts()
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored=%d", len(stored))
	}
	run, err := db.LatestRun()
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.Accepted != 2 || run.Rejected != 1 || run.TraceID != result.TraceID {
		t.Fatalf("run=%+v", run)
	}
}

func TestIngestionServiceWritesNothingOnSourceFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	svc := NewIngestionService(nil, NewNormalizer(nil), out)

	_, err := svc.Run(context.Background(), staticSource{err: errors.New("timeout")})
	if !errors.Is(err, internal.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("output dir should not exist, stat err=%v", statErr)
	}
}

func TestIngestionServiceKeepsFetchErrorDetail(t *testing.T) {
	svc := NewIngestionService(nil, NewNormalizer(nil), t.TempDir())
	cause := &internal.FetchError{Source: "https://docs.example.test", Attempts: 3, Err: errors.New("status 503")}

	_, err := svc.Run(context.Background(), staticSource{err: cause})
	var fetchErr *internal.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Attempts != 3 {
		t.Fatalf("err=%v", err)
	}
}

func TestIngestionServiceWritesNoArtifactsWhenSnapshotFails(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "vaquero.db"))
	if err != nil {
		t.Fatal(err)
	}
	_ = db.Close()
	out := filepath.Join(dir, "out")

	svc := NewIngestionService(db, NewNormalizer(nil), out)
	if _, err := svc.Run(context.Background(), staticSource{rows: namedRows("Acme")}); err == nil {
		t.Fatal("expected snapshot error")
	}
	for _, name := range []string{InterchangeFileName, DistributedFileName} {
		if _, statErr := os.Stat(filepath.Join(out, name)); !os.IsNotExist(statErr) {
			t.Fatalf("%s should not exist, stat err=%v", name, statErr)
		}
	}
	if entries, _ := os.ReadDir(out); len(entries) != 0 {
		t.Fatalf("temp files left behind: %d", len(entries))
	}
}
