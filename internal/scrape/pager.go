package scrape

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/cardbazaar/cardbazaar/backend/internal/metrics"
)

const (
	// defaultMaxPages is the safety valve against pathological or
	// hostile pagination: a source that always hands back a cursor
	// still terminates.
	defaultMaxPages = 50

	// defaultPageDelay is the politeness budget between page fetches,
	// distinct from retry backoff.
	defaultPageDelay = 2 * time.Second
)

// Pager walks a paginated listing through a source adapter, dedupes
// records by identity key within the run, and stops on the first of:
// missing cursor, empty page, fetch failure, maxPages, or context
// cancellation.
//
// Pagination state lives only for the duration of one call. A process
// restart simply restarts the listing from page 1 on the next run.
type Pager struct {
	fetcher  Fetcher
	maxPages int
	limiter  *rate.Limiter
}

func NewPager(fetcher Fetcher, maxPages int, pageDelay time.Duration) *Pager {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if pageDelay <= 0 {
		pageDelay = defaultPageDelay
	}
	return &Pager{
		fetcher:  fetcher,
		maxPages: maxPages,
		// Burst 1 keeps concurrent requests to a single source at 1.
		limiter: rate.NewLimiter(rate.Every(pageDelay), 1),
	}
}

// Paginate returns the deduplicated records accumulated before the
// terminal condition. The returned error is non-nil only when the run
// was cut short by a fetch failure; the records are valid either way —
// a partial refresh beats none.
func (p *Pager) Paginate(ctx context.Context, adapter SourceAdapter, baseURL string) ([]RawRecord, error) {
	var results []RawRecord
	seen := make(map[string]struct{})
	cursor := ""

	for page := 1; page <= p.maxPages; page++ {
		if err := p.limiter.Wait(ctx); err != nil {
			log.Printf("Pager: %s run cancelled at page %d", adapter.Name(), page)
			return results, nil
		}

		pageURL := adapter.PageURL(baseURL, cursor)
		html, err := p.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			log.Printf("Pager: %s page %d fetch failed, keeping %d records: %v",
				adapter.Name(), page, len(results), err)
			return results, err
		}
		metrics.PagesFetchedTotal.WithLabelValues(adapter.Name()).Inc()

		records, err := adapter.Parse(html)
		if err != nil {
			log.Printf("Pager: %s page %d parse failed, keeping %d records: %v",
				adapter.Name(), page, len(results), err)
			return results, err
		}

		// Some sources render an empty table on the page past the end
		// rather than omitting the next-page link.
		if len(records) == 0 {
			break
		}

		for _, r := range records {
			if _, dup := seen[r.Key]; dup {
				continue
			}
			seen[r.Key] = struct{}{}
			results = append(results, r)
		}

		cursor = adapter.NextCursor(html)
		if cursor == "" {
			break
		}
	}

	return results, nil
}
