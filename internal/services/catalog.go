package services

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/cardbazaar/cardbazaar/backend/internal/metrics"
	"github.com/cardbazaar/cardbazaar/backend/internal/models"
)

// CatalogService owns reads and writes of the card catalog. All writes
// are idempotent upserts keyed by id, so retries and overlapping
// refresh runs are safe without locking: last write wins on the
// refreshable fields, and that is the intended semantics.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// MergeBatch reconciles a batch of normalized records against the
// catalog. Inserts carry everything including createdAt and the static
// display fields; updates touch only the refreshable fields. The merge
// is additive-safe: a partial or lower-fidelity scrape never destroys
// previously captured data — a non-null image is never downgraded to
// null, price history is never touched, createdAt is never rewritten.
func (s *CatalogService) MergeBatch(batch []models.Card) (inserted, updated int) {
	now := time.Now()

	for i := range batch {
		record := batch[i]

		var existing models.Card
		err := s.db.Where("id = ?", record.ID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record.CreatedAt = now
			record.UpdatedAt = now
			if err := s.db.Create(&record).Error; err != nil {
				log.Printf("Catalog: failed to insert %s: %v", record.ID, err)
				continue
			}
			inserted++
			metrics.RecordsUpsertedTotal.WithLabelValues("insert").Inc()
			continue
		}
		if err != nil {
			log.Printf("Catalog: failed to look up %s: %v", record.ID, err)
			continue
		}

		updates := map[string]interface{}{
			"price_ungraded": record.PriceUngraded,
			"price_grade9":   record.PriceGrade9,
			"price_grade10":  record.PriceGrade10,
			"current_price":  record.CurrentPrice,
			"currency":       record.Currency,
			"source_url":     record.SourceURL,
			"updated_at":     now,
		}
		// Backfill the image only when we never had one: some sources
		// omit it on the list page.
		if existing.ImageURL == nil && record.ImageURL != nil {
			updates["image_url"] = record.ImageURL
		}

		if err := s.db.Model(&models.Card{}).Where("id = ?", record.ID).Updates(updates).Error; err != nil {
			log.Printf("Catalog: failed to update %s: %v", record.ID, err)
			continue
		}
		updated++
		metrics.RecordsUpsertedTotal.WithLabelValues("update").Inc()
	}

	var total int64
	if err := s.db.Model(&models.Card{}).Count(&total).Error; err == nil {
		metrics.CatalogSize.Set(float64(total))
	}

	return inserted, updated
}

// SetGroups aggregates the catalog by set, coldest first. MinUpdatedAt
// is the staleness signal the scheduler sorts on.
func (s *CatalogService) SetGroups() ([]models.SetGroup, error) {
	var groups []models.SetGroup
	err := s.db.Raw(`
		SELECT set_id, set_name, source, COUNT(*) AS count, MIN(updated_at) AS min_updated_at
		FROM cards
		WHERE set_id != ''
		GROUP BY set_id
		ORDER BY min_updated_at ASC
	`).Scan(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// StalestGroups returns the limit least-recently refreshed set groups.
func (s *CatalogService) StalestGroups(limit int) ([]models.SetGroup, error) {
	groups, err := s.SetGroups()
	if err != nil {
		return nil, err
	}
	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, nil
}

// CardsForSet returns all catalog records of one set group.
func (s *CatalogService) CardsForSet(setID string) ([]models.Card, error) {
	var cards []models.Card
	if err := s.db.Where("set_id = ?", setID).Order("name ASC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ApplySetCode stamps a set code onto every record of a group and
// returns how many records it reached.
func (s *CatalogService) ApplySetCode(setID, code string) (int64, error) {
	result := s.db.Model(&models.Card{}).Where("set_id = ?", setID).Update("set_code", code)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SetCodeRows builds the export view: one row per set with its display
// name, assigned code, and record count.
func (s *CatalogService) SetCodeRows() ([]models.SetCodeRow, error) {
	var rows []models.SetCodeRow
	err := s.db.Raw(`
		SELECT set_id, set_name, set_code, COUNT(*) AS count
		FROM cards
		WHERE set_id != ''
		GROUP BY set_id
		ORDER BY set_name ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
