package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cardbazaar/cardbazaar/backend/internal/models"
)

type stubRowReader struct {
	rows [][]string
	err  error
}

func (r *stubRowReader) ReadRows(ctx context.Context) ([][]string, error) {
	return r.rows, r.err
}

func TestSyncAppliesCodes(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	seedCard(t, db, "pc-a1", "set-a", models.SourcePriceCharting, time.Now())
	seedCard(t, db, "pc-b1", "set-b", models.SourcePriceCharting, time.Now())

	reader := &stubRowReader{rows: [][]string{
		{"set-a", "Base Set", "BS1"},
		{"set-b", "Jungle", "JU1"},
	}}

	report := NewSetCodeSyncService(catalog, reader).Sync(context.Background())

	if !report.Success {
		t.Fatalf("unexpected failure: %s", report.Error)
	}
	if report.Applied != 2 {
		t.Errorf("expected 2 applied rows, got %d", report.Applied)
	}
	if len(report.Failed) != 0 {
		t.Errorf("expected no failed rows, got %v", report.Failed)
	}

	var got models.Card
	db.First(&got, "id = ?", "pc-a1")
	if got.SetCode != "BS1" {
		t.Errorf("expected set code BS1, got %q", got.SetCode)
	}
}

// A sheet row for a group the catalog has never seen is reported, not
// silently dropped and not fatal.
func TestSyncReportsUnmatchedRows(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	seedCard(t, db, "pc-a1", "set-a", models.SourcePriceCharting, time.Now())

	reader := &stubRowReader{rows: [][]string{
		{"set-a", "Base Set", "BS1"},
		{"set-ghost", "Not In Catalog", "XX1"},
	}}

	report := NewSetCodeSyncService(catalog, reader).Sync(context.Background())

	if !report.Success {
		t.Fatalf("unexpected failure: %s", report.Error)
	}
	if report.Applied != 1 {
		t.Errorf("expected 1 applied row, got %d", report.Applied)
	}
	if len(report.Failed) != 1 || report.Failed[0] != "set-ghost" {
		t.Errorf("expected set-ghost in failed rows, got %v", report.Failed)
	}
}

func TestSyncSkipsMalformedRows(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	seedCard(t, db, "pc-a1", "set-a", models.SourcePriceCharting, time.Now())

	reader := &stubRowReader{rows: [][]string{
		{"set-a"},                  // too short
		{"", "No Group", "XX"},     // blank group id
		{"set-a", "Base Set", " "}, // blank code
		{"set-a", "Base Set", "BS1"},
	}}

	report := NewSetCodeSyncService(catalog, reader).Sync(context.Background())

	if report.Applied != 1 {
		t.Errorf("expected 1 applied row, got %d", report.Applied)
	}
	if len(report.Failed) != 0 {
		t.Errorf("malformed rows are skipped, not failed: %v", report.Failed)
	}
}

func TestSyncReaderFailure(t *testing.T) {
	catalog := NewCatalogService(newTestDB(t))
	reader := &stubRowReader{err: errors.New("sheet unavailable")}

	report := NewSetCodeSyncService(catalog, reader).Sync(context.Background())

	if report.Success {
		t.Error("expected failure when the sheet cannot be read")
	}
	if report.Error == "" {
		t.Error("expected the reader error in the report")
	}
}

func TestSyncResyncOverwritesCode(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	seedCard(t, db, "pc-a1", "set-a", models.SourcePriceCharting, time.Now())
	svc := NewSetCodeSyncService(catalog, &stubRowReader{rows: [][]string{{"set-a", "Base Set", "BS1"}}})
	svc.Sync(context.Background())

	// The sheet is the source of truth: a corrected code wins.
	svc = NewSetCodeSyncService(catalog, &stubRowReader{rows: [][]string{{"set-a", "Base Set", "BS2"}}})
	svc.Sync(context.Background())

	var got models.Card
	db.First(&got, "id = ?", "pc-a1")
	if got.SetCode != "BS2" {
		t.Errorf("expected corrected code BS2, got %q", got.SetCode)
	}
}
