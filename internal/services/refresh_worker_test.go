package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cardbazaar/cardbazaar/backend/internal/models"
	"github.com/cardbazaar/cardbazaar/backend/internal/scrape"
)

// stubFetcher serves canned pages by URL; URLs it does not know fail
// the way a dead source would.
type stubFetcher struct {
	pages map[string]string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	page, ok := f.pages[url]
	if !ok {
		return "", &scrape.FatalError{URL: url, StatusCode: 503}
	}
	return page, nil
}

// stubAdapter treats page content as a comma-separated key list. No
// cursor: every set is a single page.
type stubAdapter struct{}

func (a *stubAdapter) Name() string { return "stub" }

func (a *stubAdapter) PageURL(baseURL, cursor string) string { return baseURL }

func (a *stubAdapter) NextCursor(content string) string { return "" }

func (a *stubAdapter) Parse(content string) ([]scrape.RawRecord, error) {
	if content == "" {
		return nil, nil
	}
	var records []scrape.RawRecord
	for _, key := range strings.Split(content, ",") {
		records = append(records, scrape.RawRecord{
			Key:           key,
			Name:          "Card " + key,
			PriceUngraded: "$10.00",
		})
	}
	return records, nil
}

func newTestWorker(t *testing.T, catalog *CatalogService, fetcher scrape.Fetcher, runBudget time.Duration) *RefreshWorker {
	t.Helper()
	pipeline := SourcePipeline{
		Source:  models.SourcePriceCharting,
		Adapter: &stubAdapter{},
		Pager:   scrape.NewPager(fetcher, 10, time.Millisecond),
		SetURL:  func(setID string) string { return "http://src/" + setID },
	}
	return NewRefreshWorker(catalog, []SourcePipeline{pipeline}, 5, time.Hour, runBudget)
}

// One failing source group must not block the others: A and C refresh,
// B is reported with zero records.
func TestRunOnceIsolatesGroupFailures(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	old := time.Now().Add(-72 * time.Hour)
	seedCard(t, db, "pc-seed-a", "set-a", models.SourcePriceCharting, old)
	seedCard(t, db, "pc-seed-b", "set-b", models.SourcePriceCharting, old.Add(time.Hour))
	seedCard(t, db, "pc-seed-c", "set-c", models.SourcePriceCharting, old.Add(2*time.Hour))

	fetcher := &stubFetcher{pages: map[string]string{
		"http://src/set-a": "a1,a2",
		// set-b missing: its fetch always fails
		"http://src/set-c": "c1",
	}}

	report := newTestWorker(t, catalog, fetcher, time.Minute).RunOnce(context.Background())

	if !report.Success {
		t.Errorf("group failures must not fail the run: %s", report.Error)
	}
	if len(report.UpdatedSets) != 3 {
		t.Fatalf("expected 3 set entries, got %d", len(report.UpdatedSets))
	}

	byStatus := map[string]string{}
	for _, s := range report.UpdatedSets {
		byStatus[s.Set] = s.Status
	}
	if byStatus["set-a"] != StatusUpdated || byStatus["set-c"] != StatusUpdated {
		t.Errorf("healthy sets should be updated: %v", byStatus)
	}
	if byStatus["set-b"] != StatusNoData {
		t.Errorf("failing set should report no data, got %q", byStatus["set-b"])
	}

	// The healthy groups' records actually landed.
	cardsA, _ := catalog.CardsForSet("set-a")
	if len(cardsA) != 3 { // seed + a1 + a2
		t.Errorf("expected 3 cards in set-a, got %d", len(cardsA))
	}
	cardsC, _ := catalog.CardsForSet("set-c")
	if len(cardsC) != 2 {
		t.Errorf("expected 2 cards in set-c, got %d", len(cardsC))
	}
}

func TestRunOnceRefreshesColdestFirst(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	seedCard(t, db, "pc-seed-a", "set-a", models.SourcePriceCharting, time.Now().Add(-1*time.Hour))
	seedCard(t, db, "pc-seed-b", "set-b", models.SourcePriceCharting, time.Now().Add(-48*time.Hour))

	fetcher := &stubFetcher{pages: map[string]string{
		"http://src/set-a": "a1",
		"http://src/set-b": "b1",
	}}

	report := newTestWorker(t, catalog, fetcher, time.Minute).RunOnce(context.Background())

	if len(report.UpdatedSets) != 2 {
		t.Fatalf("expected 2 set entries, got %d", len(report.UpdatedSets))
	}
	if report.UpdatedSets[0].Set != "set-b" {
		t.Errorf("coldest set should run first, got %s", report.UpdatedSets[0].Set)
	}
}

// A run that blows its budget marks the remaining groups skipped
// instead of running past the deadline.
func TestRunOnceSkipsGroupsPastBudget(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	seedCard(t, db, "pc-seed-a", "set-a", models.SourcePriceCharting, time.Now().Add(-2*time.Hour))
	seedCard(t, db, "pc-seed-b", "set-b", models.SourcePriceCharting, time.Now().Add(-1*time.Hour))

	fetcher := &stubFetcher{pages: map[string]string{
		"http://src/set-a": "a1",
		"http://src/set-b": "b1",
	}}

	report := newTestWorker(t, catalog, fetcher, time.Nanosecond).RunOnce(context.Background())

	if !report.Success {
		t.Errorf("budget exhaustion is not a run failure: %s", report.Error)
	}
	for _, s := range report.UpdatedSets {
		if s.Status != StatusSkipped {
			t.Errorf("set %s should be skipped past budget, got %q", s.Set, s.Status)
		}
		if s.Count != 0 {
			t.Errorf("skipped set %s reported %d records", s.Set, s.Count)
		}
	}
}

func TestRunOnceUnknownSourceYieldsNoData(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	// The worker only carries a PriceCharting pipeline.
	seedCard(t, db, "snkr-seed", "set-jp", models.SourceSnkrDunk, time.Now().Add(-2*time.Hour))

	fetcher := &stubFetcher{pages: map[string]string{}}
	report := newTestWorker(t, catalog, fetcher, time.Minute).RunOnce(context.Background())

	if len(report.UpdatedSets) != 1 {
		t.Fatalf("expected 1 set entry, got %d", len(report.UpdatedSets))
	}
	if report.UpdatedSets[0].Status != StatusNoData {
		t.Errorf("expected no data for unpipelined source, got %q", report.UpdatedSets[0].Status)
	}
}

func TestGetStatusReflectsLastRun(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)
	worker := newTestWorker(t, catalog, &stubFetcher{pages: map[string]string{}}, time.Minute)

	if status := worker.GetStatus(); status.LastRun != nil {
		t.Error("expected no last run before the first run")
	}

	report := worker.RunOnce(context.Background())

	status := worker.GetStatus()
	if status.LastRun == nil {
		t.Fatal("expected a last run after RunOnce")
	}
	if status.LastRun.RunID != report.RunID {
		t.Errorf("status run id %s does not match report %s", status.LastRun.RunID, report.RunID)
	}
	if !status.NextRunTime.After(report.StartedAt) {
		t.Errorf("next run time should be in the future relative to the run start")
	}
}
