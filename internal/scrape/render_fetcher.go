package scrape

import (
	"context"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultRenderTimeout = 45 * time.Second

// RenderFetcher retrieves pages whose content only exists after script
// execution, by driving a headless browser and returning the rendered
// DOM. Render failures are fatal for the group: a browser that cannot
// render one page of a listing will not render the next either.
type RenderFetcher struct {
	waitSelector string
	timeout      time.Duration
}

// NewRenderFetcher creates a fetcher that waits for waitSelector to be
// visible before snapshotting the DOM.
func NewRenderFetcher(waitSelector string) *RenderFetcher {
	return &RenderFetcher{
		waitSelector: waitSelector,
		timeout:      defaultRenderTimeout,
	}
}

func (f *RenderFetcher) Fetch(ctx context.Context, url string) (string, error) {
	chromedpCtx, cancel := chromedp.NewContext(ctx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	chromedpCtx, cancel = context.WithTimeout(chromedpCtx, f.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(chromedpCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(f.waitSelector, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		log.Printf("Render fetcher: failed to render %s: %v", url, err)
		return "", &FatalError{URL: url, Err: err}
	}

	return html, nil
}
