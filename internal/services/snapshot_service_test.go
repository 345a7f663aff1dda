package services

import (
	"testing"
	"time"

	"github.com/cardbazaar/cardbazaar/backend/internal/models"
)

func TestTakeSnapshotRecordsPricedCards(t *testing.T) {
	db := newTestDB(t)
	svc := NewSnapshotService(db)

	seedCard(t, db, "pc-a1", "set-a", models.SourcePriceCharting, time.Now())
	seedCard(t, db, "pc-a2", "set-a", models.SourcePriceCharting, time.Now())

	// A card with no price at all contributes no point.
	priceless := models.Card{
		ID:     "pc-nil",
		Source: models.SourcePriceCharting,
		Name:   "Unpriced",
		SetID:  "set-a",
	}
	if err := db.Create(&priceless).Error; err != nil {
		t.Fatalf("failed to seed card: %v", err)
	}

	if err := svc.TakeSnapshot(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int64
	db.Model(&models.PricePoint{}).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 price points, got %d", count)
	}
}

// Two snapshots on the same day must not duplicate history.
func TestTakeSnapshotSameDayIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewSnapshotService(db)

	seedCard(t, db, "pc-a1", "set-a", models.SourcePriceCharting, time.Now())

	if err := svc.TakeSnapshot(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.TakeSnapshot(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int64
	db.Model(&models.PricePoint{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 price point after double snapshot, got %d", count)
	}
}

func TestTakeSnapshotPrefersCurrentPrice(t *testing.T) {
	db := newTestDB(t)
	svc := NewSnapshotService(db)

	ungraded := 10.0
	current := 4800.0
	card := models.Card{
		ID:            "snkr-1",
		Source:        models.SourceSnkrDunk,
		Name:          "Pikachu AR",
		SetID:         "set-jp",
		Currency:      "JPY",
		PriceUngraded: &ungraded,
		CurrentPrice:  &current,
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("failed to seed card: %v", err)
	}

	if err := svc.TakeSnapshot(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	points, err := svc.GetHistory("snkr-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Price != current {
		t.Errorf("expected the listing price %v, got %v", current, points[0].Price)
	}
	if points[0].Currency != "JPY" {
		t.Errorf("expected JPY, got %s", points[0].Currency)
	}
}

func TestGetHistoryOldestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewSnapshotService(db)

	seedCard(t, db, "pc-a1", "set-a", models.SourcePriceCharting, time.Now())
	for i, day := range []int{3, 1, 2} {
		point := models.PricePoint{
			CardID:   "pc-a1",
			Date:     time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC),
			Price:    float64(10 + i),
			Currency: "USD",
		}
		if err := db.Create(&point).Error; err != nil {
			t.Fatalf("failed to seed point: %v", err)
		}
	}

	points, err := svc.GetHistory("pc-a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Date.Before(points[i-1].Date) {
			t.Errorf("history out of order at index %d", i)
		}
	}
}
