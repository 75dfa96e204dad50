package storage

import (
	"path/filepath"
	"testing"

	"vaquero/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "vaquero.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestReplaceAndListDiscounts(t *testing.T) {
	db := openTestDB(t)

	first := []internal.DiscountRecord{
		{ID: 100, BusinessName: "Joe's Tacos & Grill", Category: internal.CategoryEatDrink, WhoCanRedeem: []internal.Role{internal.RoleStudents, internal.RoleStaff}, CampusProximity: "Near Edinburg", IsFeatured: true, Tags: []string{"eat"}},
		{ID: 101, BusinessName: "Valley Tires", Category: internal.CategoryAutoTech, WhoCanRedeem: []internal.Role{internal.RoleFaculty}, CampusProximity: "RGV Area", Tags: []string{"auto"}},
	}
	if err := db.ReplaceDiscounts(first); err != nil {
		t.Fatal(err)
	}

	second := first[:1]
	if err := db.ReplaceDiscounts(second); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListDiscounts()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
	rec := got[0]
	if rec.ID != 100 || !rec.IsFeatured || rec.Category != internal.CategoryEatDrink {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.WhoCanRedeem) != 2 || rec.WhoCanRedeem[1] != internal.RoleStaff {
		t.Fatalf("whoCanRedeem=%v", rec.WhoCanRedeem)
	}
	if len(rec.Tags) != 1 || rec.Tags[0] != "eat" {
		t.Fatalf("tags=%v", rec.Tags)
	}
}

func TestCountByCategory(t *testing.T) {
	db := openTestDB(t)
	records := []internal.DiscountRecord{
		{ID: 100, BusinessName: "A", Category: internal.CategoryShop},
		{ID: 101, BusinessName: "B", Category: internal.CategoryShop},
		{ID: 102, BusinessName: "C", Category: internal.CategoryOther},
	}
	if err := db.ReplaceDiscounts(records); err != nil {
		t.Fatal(err)
	}
	counts, err := db.CountByCategory()
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 {
		t.Fatalf("len=%d", len(counts))
	}
	if counts[0].Category != internal.CategoryOther || counts[0].Count != 1 {
		t.Fatalf("first=%+v", counts[0])
	}
	if counts[1].Category != internal.CategoryShop || counts[1].Count != 2 {
		t.Fatalf("second=%+v", counts[1])
	}
}

func TestFilterStateRoundTrip(t *testing.T) {
	db := openTestDB(t)

	missing, err := db.LoadState("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil, got %q", missing)
	}

	if err := db.SaveState("user-1", []byte(`{"search":"tacos"}`)); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveState("user-1", []byte(`{"search":"pizza"}`)); err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadState("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"search":"pizza"}` {
		t.Fatalf("got %q", got)
	}
}

func TestRunLogAndMetadata(t *testing.T) {
	db := openTestDB(t)

	if run, err := db.LatestRun(); err != nil || run != nil {
		t.Fatalf("run=%v err=%v", run, err)
	}
	if err := db.InsertRun(internal.IngestRun{TraceID: "a", Source: "file:x.csv", Accepted: 3, Rejected: 1}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRun(internal.IngestRun{TraceID: "b", Source: "file:x.csv", Accepted: 4}); err != nil {
		t.Fatal(err)
	}
	run, err := db.LatestRun()
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.TraceID != "b" || run.Accepted != 4 {
		t.Fatalf("run=%+v", run)
	}

	if err := db.SetMetadata("ingest.last_success", "2026-10-18T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	value, err := db.GetMetadata("ingest.last_success")
	if err != nil {
		t.Fatal(err)
	}
	if value == nil || *value != "2026-10-18T00:00:00Z" {
		t.Fatalf("value=%v", value)
	}
}
