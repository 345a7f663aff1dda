package scrape

import (
	"strconv"
	"strings"

	"github.com/cardbazaar/cardbazaar/backend/internal/models"
)

// Provenance carries the per-source, per-group constants stamped onto
// every record normalized from one pagination run.
type Provenance struct {
	Source   models.Source
	IDPrefix string // "pc", "snkr"
	Currency string // one fixed currency per adapter
	SetID    string
	SetName  string
}

// ProvenanceFor returns the fixed identity and currency tagging for a
// source. Each adapter maps to exactly one prefix and currency.
func ProvenanceFor(source models.Source, setID, setName string) Provenance {
	p := Provenance{Source: source, SetID: setID, SetName: setName}
	switch source {
	case models.SourceSnkrDunk:
		p.IDPrefix = "snkr"
		p.Currency = "JPY"
	default:
		p.IDPrefix = "pc"
		p.Currency = "USD"
	}
	return p
}

// Normalize maps one raw record into the canonical card schema. It is
// deterministic and side-effect-free: no network, no clock, no store.
// Timestamps are owned by the merge, not the normalizer.
func Normalize(raw RawRecord, prov Provenance) models.Card {
	card := models.Card{
		ID:        prov.IDPrefix + "-" + raw.Key,
		Source:    prov.Source,
		Name:      raw.Name,
		SetID:     prov.SetID,
		SetName:   prov.SetName,
		Currency:  prov.Currency,
		SourceURL: raw.DetailURL,
	}

	if img := strings.TrimSpace(raw.ImageURL); img != "" {
		card.ImageURL = &img
	}

	card.PriceUngraded = ParsePrice(raw.PriceUngraded)
	card.PriceGrade9 = ParsePrice(raw.PriceGrade9)
	card.PriceGrade10 = ParsePrice(raw.PriceGrade10)
	card.CurrentPrice = ParsePrice(raw.PriceCurrent)

	return card
}

// ParsePrice turns a display price string into a number: currency
// symbols and thousands separators are stripped, then the remainder is
// parsed as a decimal. Non-numeric input ("", "N/A", "-") yields nil,
// never zero and never an error.
func ParsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',', r == '$', r == '¥', r == '£', r == '€', r == ' ':
			// separators and currency symbols
		default:
			return nil
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return nil
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
