package scrape

import "fmt"

// TransientError covers rate limiting and server-side failures that are
// worth retrying on a later run. The pager stops the current page on it
// but keeps whatever was already accumulated.
type TransientError struct {
	URL        string
	StatusCode int
	Attempts   int
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure fetching %s (status %d after %d attempts)", e.URL, e.StatusCode, e.Attempts)
}

// FatalError covers failures that will not resolve on their own: 4xx
// responses other than 429, and network errors after retries are
// exhausted. It aborts the current group, never the whole run.
type FatalError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal failure fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fatal failure fetching %s (status %d)", e.URL, e.StatusCode)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
