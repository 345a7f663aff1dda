package scrape

// RawRecord is one row as parsed off a source page, before
// normalization. Price fields are the raw display strings ("$1,234.50",
// "¥1,200", "N/A", ""); the normalizer turns them into numbers.
//
// Key is the source-local identity (a detail-link slug or numeric id),
// without the source prefix. A record that could not yield a key or a
// name is dropped by the adapter, never defaulted.
type RawRecord struct {
	Key       string
	Name      string
	DetailURL string
	ImageURL  string

	// PriceCharting regime: three graded tiers.
	PriceUngraded string
	PriceGrade9   string
	PriceGrade10  string

	// SnkrDunk regime: single current price.
	PriceCurrent string
}

// SourceAdapter translates one external source's page shape into raw
// records. Adapters are pure parsers: they never fetch, so they are
// testable from static fixtures.
type SourceAdapter interface {
	// Name is the source identifier used for id prefixes and metrics.
	Name() string

	// Parse extracts the raw records from one page of content.
	Parse(html string) ([]RawRecord, error)

	// NextCursor extracts the continuation token from the page's
	// next-page affordance. Empty string means last page: sources emit
	// no other reliable end-of-data marker.
	NextCursor(html string) string

	// PageURL builds the URL for a page: the base listing URL when
	// cursor is empty, otherwise the base with the cursor appended.
	PageURL(baseURL, cursor string) string
}
