package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportRecordsToXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review", "discounts.xlsx")
	if err := ExportRecordsToXLSX(sampleRecords(), path); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][16] != "contactTitle" {
		t.Fatalf("header=%v", rows[0])
	}
	if rows[1][1] != "Joe's Tacos & Grill" || rows[1][4] != "Students;Staff" {
		t.Fatalf("row=%v", rows[1])
	}
	if rows[1][0] != "100" || rows[1][12] != "true" {
		t.Fatalf("id=%q isFeatured=%q", rows[1][0], rows[1][12])
	}
}
