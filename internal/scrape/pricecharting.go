package scrape

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const priceChartingBaseURL = "https://www.pricecharting.com"

// PriceChartingAdapter parses the server-rendered console table on
// PriceCharting set pages: one row per card with a detail link and the
// ungraded / grade 9 / grade 10 price columns. The next-page cursor is
// carried in a hidden form field rather than a link.
type PriceChartingAdapter struct{}

func NewPriceChartingAdapter() *PriceChartingAdapter {
	return &PriceChartingAdapter{}
}

func (a *PriceChartingAdapter) Name() string {
	return "pricecharting"
}

func (a *PriceChartingAdapter) PageURL(baseURL, cursor string) string {
	if cursor == "" {
		return baseURL
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + "cursor=" + url.QueryEscape(cursor)
}

// SetURL maps a set id to its listing page. The slug mapping is
// deterministic so the scheduler can reconstruct it from the catalog.
func (a *PriceChartingAdapter) SetURL(setID string) string {
	return fmt.Sprintf("%s/console/%s", priceChartingBaseURL, url.PathEscape(setID))
}

func (a *PriceChartingAdapter) Parse(html string) ([]RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var records []RawRecord
	doc.Find("table#games_table tbody tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td.title a").First()
		name := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")

		// A row without a name or an identity-bearing link is dropped,
		// not defaulted.
		key := slugFromPath(href)
		if name == "" || key == "" {
			return
		}

		records = append(records, RawRecord{
			Key:           key,
			Name:          name,
			DetailURL:     absoluteURL(priceChartingBaseURL, href),
			PriceUngraded: strings.TrimSpace(row.Find("td.used_price .js-price").First().Text()),
			PriceGrade9:   strings.TrimSpace(row.Find("td.cib_price .js-price").First().Text()),
			PriceGrade10:  strings.TrimSpace(row.Find("td.new_price .js-price").First().Text()),
		})
	})

	return records, nil
}

func (a *PriceChartingAdapter) NextCursor(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	cursor, _ := doc.Find(`input[name="cursor"]`).First().Attr("value")
	return strings.TrimSpace(cursor)
}

// slugFromPath extracts the identity slug from a detail link like
// "/game/pokemon-base-set/charizard-4" -> "charizard-4".
func slugFromPath(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if u, err := url.Parse(href); err == nil {
		href = u.Path
	}
	href = strings.TrimRight(href, "/")
	idx := strings.LastIndex(href, "/")
	if idx < 0 || idx == len(href)-1 {
		return ""
	}
	return href[idx+1:]
}

func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}
