package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cardbazaar/cardbazaar/backend/internal/models"
)

// SnapshotService appends one price-history point per card per day.
// It is the only writer of the price_points table; the ingestion merge
// never touches history, so a partial scrape can never clobber it.
type SnapshotService struct {
	db            *gorm.DB
	mu            sync.Mutex
	snapshotHour  int // Hour of day to take the snapshot (0-23)
	checkInterval time.Duration
}

func NewSnapshotService(db *gorm.DB) *SnapshotService {
	return &SnapshotService{
		db:            db,
		snapshotHour:  23, // Default: 11 PM
		checkInterval: 15 * time.Minute,
	}
}

// Start begins the background snapshot worker.
func (s *SnapshotService) Start(ctx context.Context) {
	log.Println("Snapshot service started: will record daily price history")

	s.checkAndSnapshot()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshot service stopping...")
			return
		case <-ticker.C:
			s.checkAndSnapshot()
		}
	}
}

func (s *SnapshotService) checkAndSnapshot() {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if s.hasSnapshotForDate(today) {
		return
	}

	if now.Hour() >= s.snapshotHour {
		if err := s.TakeSnapshot(); err != nil {
			log.Printf("Snapshot service: failed to take snapshot: %v", err)
		}
	}
}

func (s *SnapshotService) hasSnapshotForDate(date time.Time) bool {
	var count int64
	s.db.Model(&models.PricePoint{}).Where("date = ?", date).Count(&count)
	return count > 0
}

// TakeSnapshot appends today's price point for every card that has a
// price. Points are append-only: a second snapshot on the same day is
// a no-op, never an overwrite.
func (s *SnapshotService) TakeSnapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var cards []models.Card
	if err := s.db.Find(&cards).Error; err != nil {
		return err
	}

	points := make([]models.PricePoint, 0, len(cards))
	for i := range cards {
		price := cards[i].BestPrice()
		if price == nil {
			continue
		}
		points = append(points, models.PricePoint{
			CardID:   cards[i].ID,
			Date:     date,
			Price:    *price,
			Currency: cards[i].Currency,
		})
	}

	if len(points) == 0 {
		return nil
	}

	// DoNothing on the (card_id, date) unique index keeps history
	// append-only even if two snapshots race.
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_id"}, {Name: "date"}},
		DoNothing: true,
	}).CreateInBatches(&points, 500).Error
	if err != nil {
		return err
	}

	log.Printf("Snapshot service: recorded %d price points for %s",
		len(points), date.Format("2006-01-02"))
	return nil
}

// GetHistory returns a card's price history, oldest first.
func (s *SnapshotService) GetHistory(cardID string) ([]models.PricePoint, error) {
	var points []models.PricePoint
	if err := s.db.Where("card_id = ?", cardID).Order("date ASC").Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}
