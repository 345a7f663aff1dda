package scrape

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const snkrDunkBaseURL = "https://snkrdunk.com"

// SnkrDunkWaitSelector is the element the render fetcher waits for
// before snapshotting the DOM; the grid only exists after scripts run.
const SnkrDunkWaitSelector = "ul.search-result-list"

var snkrDunkIDPattern = regexp.MustCompile(`/trading-cards/(\d+)`)

// SnkrDunkAdapter parses the client-rendered search result grid on
// SnkrDunk set pages. Identity comes from the numeric id embedded in
// each item's detail link; items without one get a stable content-hash
// key so repeat runs still dedupe and update them instead of piling up
// near-duplicates.
type SnkrDunkAdapter struct{}

func NewSnkrDunkAdapter() *SnkrDunkAdapter {
	return &SnkrDunkAdapter{}
}

func (a *SnkrDunkAdapter) Name() string {
	return "snkrdunk"
}

func (a *SnkrDunkAdapter) PageURL(baseURL, cursor string) string {
	if cursor == "" {
		return baseURL
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + "page=" + url.QueryEscape(cursor)
}

// SetURL maps a set id to its search listing page.
func (a *SnkrDunkAdapter) SetURL(setID string) string {
	return fmt.Sprintf("%s/trading-cards/sets/%s", snkrDunkBaseURL, url.PathEscape(setID))
}

func (a *SnkrDunkAdapter) Parse(html string) ([]RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var records []RawRecord
	doc.Find("ul.search-result-list li.item").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a").First()
		href, _ := link.Attr("href")
		name := strings.TrimSpace(item.Find(".item-name").First().Text())
		price := strings.TrimSpace(item.Find(".item-price").First().Text())
		image, _ := item.Find("img").First().Attr("src")

		if name == "" || strings.TrimSpace(href) == "" {
			return
		}

		key := numericID(href)
		if key == "" {
			key = contentKey(name, price)
		}

		records = append(records, RawRecord{
			Key:          key,
			Name:         name,
			DetailURL:    absoluteURL(snkrDunkBaseURL, href),
			ImageURL:     strings.TrimSpace(image),
			PriceCurrent: price,
		})
	})

	return records, nil
}

// NextCursor reads the page number off the rel=next pagination link.
func (a *SnkrDunkAdapter) NextCursor(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	href, ok := doc.Find(`a[rel="next"]`).First().Attr("href")
	if !ok {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get("page")
}

func numericID(href string) string {
	m := snkrDunkIDPattern.FindStringSubmatch(href)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// contentKey derives a stable identity for items whose detail link
// carries no id, so they dedupe across runs.
func contentKey(name, price string) string {
	sum := sha1.Sum([]byte(name + "|" + price))
	return "h" + hex.EncodeToString(sum[:])[:12]
}
