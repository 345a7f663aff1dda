package database

import (
	"log"

	"gorm.io/gorm"
)

// RunMigrations runs custom data migrations after schema changes.
func RunMigrations(db *gorm.DB) error {
	if err := backfillCurrency(db); err != nil {
		return err
	}
	if err := cleanupDuplicatePricePoints(db); err != nil {
		return err
	}
	return nil
}

// backfillCurrency fills the currency column on rows written before it
// existed. The prefix on the id tells us which source (and currency)
// each record came from.
func backfillCurrency(db *gorm.DB) error {
	if !db.Migrator().HasColumn("cards", "currency") {
		return nil
	}

	result := db.Exec(`UPDATE cards SET currency = 'USD' WHERE (currency IS NULL OR currency = '') AND id LIKE 'pc-%'`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("Backfilled currency for %d PriceCharting rows", result.RowsAffected)
	}

	result = db.Exec(`UPDATE cards SET currency = 'JPY' WHERE (currency IS NULL OR currency = '') AND id LIKE 'snkr-%'`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("Backfilled currency for %d SnkrDunk rows", result.RowsAffected)
	}

	return nil
}

// cleanupDuplicatePricePoints removes duplicate history entries written
// before the (card_id, date) unique index existed, keeping the newest row.
// Runs before the index is enforced so migration cannot fail on old data.
func cleanupDuplicatePricePoints(db *gorm.DB) error {
	if !db.Migrator().HasTable("price_points") {
		return nil
	}

	result := db.Exec(`
		DELETE FROM price_points
		WHERE id NOT IN (
			SELECT MAX(id)
			FROM price_points
			GROUP BY card_id, date
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d duplicate price_points entries", result.RowsAffected)
	}

	return nil
}
