package models

import (
	"time"
)

// Source identifies which external marketplace a card record came from.
type Source string

const (
	SourcePriceCharting Source = "pricecharting"
	SourceSnkrDunk      Source = "snkrdunk"
)

// Card is the canonical catalog record. IDs are source-prefixed
// ("pc-<slug>", "snkr-<id>") so the two catalogs can never collide.
//
// Exactly one pricing regime is populated per record: PriceCharting rows
// carry the ungraded/grade-9/grade-10 tiers, SnkrDunk rows carry a single
// CurrentPrice. Consumers must not assume both are present.
type Card struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Source   Source `json:"source" gorm:"not null;index"`
	Name     string `json:"name" gorm:"not null;index"`
	SetName  string `json:"set_name"`
	SetID    string `json:"set_id" gorm:"index"`
	SetCode  string `json:"set_code"`
	Currency string `json:"currency"`

	PriceUngraded *float64 `json:"price_ungraded"`
	PriceGrade9   *float64 `json:"price_grade9"`
	PriceGrade10  *float64 `json:"price_grade10"`
	CurrentPrice  *float64 `json:"current_price"`

	ImageURL  *string `json:"image_url"`
	SourceURL string  `json:"source_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PricePoint is one entry of a card's append-only price history.
// Rows are written exclusively by the snapshot service; the ingestion
// merge never reads or writes this table.
type PricePoint struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	CardID   string    `json:"card_id" gorm:"not null;uniqueIndex:idx_card_date"`
	Date     time.Time `json:"date" gorm:"not null;uniqueIndex:idx_card_date"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
}

// SetGroup is the derived per-set aggregation used for scheduling and
// browsing. It is computed from the cards table, never stored.
type SetGroup struct {
	SetID        string    `json:"set_id"`
	SetName      string    `json:"set_name"`
	Source       Source    `json:"source"`
	Count        int       `json:"count"`
	MinUpdatedAt time.Time `json:"min_updated_at"`
}

// SetCodeRow is one exported row of the set-code report.
type SetCodeRow struct {
	SetID   string `json:"set_id"`
	SetName string `json:"set_name"`
	SetCode string `json:"set_code"`
	Count   int    `json:"count"`
}

// BestPrice returns the representative price for history snapshots:
// the single current price when present, otherwise the ungraded tier.
func (c *Card) BestPrice() *float64 {
	if c.CurrentPrice != nil {
		return c.CurrentPrice
	}
	return c.PriceUngraded
}
