package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardbazaar/cardbazaar/backend/internal/metrics"
	"github.com/cardbazaar/cardbazaar/backend/internal/models"
	"github.com/cardbazaar/cardbazaar/backend/internal/scrape"
)

const (
	defaultRefreshInterval = 30 * time.Minute
	defaultRunBudget       = 5 * time.Minute

	// defaultSetLimit is how many of the coldest set groups one run
	// refreshes. Small on purpose: the sources rate-limit aggressively
	// and the run has to fit the execution window.
	defaultSetLimit = 5

	StatusUpdated = "Updated"
	StatusNoData  = "No data found"
	StatusSkipped = "Skipped"
)

// SourcePipeline binds one external source's adapter, pager, and slug
// mapping. The pager carries the per-source politeness limiter, so one
// pipeline per source keeps concurrent requests to that source at 1.
type SourcePipeline struct {
	Source  models.Source
	Adapter scrape.SourceAdapter
	Pager   *scrape.Pager
	SetURL  func(setID string) string
}

// SetReport is one group's entry in the run report.
type SetReport struct {
	Set    string `json:"set"`
	Count  int    `json:"count"`
	Status string `json:"status"`
}

// RefreshReport is the structured result of one scheduler run. A run
// always reports success with a per-group breakdown: one bad source
// must not block refreshing the others, so no error propagates past
// the top level.
type RefreshReport struct {
	RunID       string      `json:"run_id"`
	Success     bool        `json:"success"`
	UpdatedSets []SetReport `json:"updatedSets"`
	Error       string      `json:"error,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	DurationMS  int64       `json:"duration_ms"`
}

// RefreshStatus is the operator view served by the status endpoint.
type RefreshStatus struct {
	LastRun     *RefreshReport `json:"last_run,omitempty"`
	NextRunTime time.Time      `json:"next_run_time"`
	SetLimit    int            `json:"set_limit"`
	IntervalMin float64        `json:"interval_minutes"`
}

// RefreshWorker is the staleness scheduler: it periodically selects the
// least-recently refreshed set groups and drives the scrape pipeline
// across them, sequentially, within a wall-clock budget.
type RefreshWorker struct {
	catalog   *CatalogService
	pipelines map[models.Source]SourcePipeline

	interval  time.Duration
	runBudget time.Duration
	setLimit  int

	mu          sync.RWMutex
	lastRun     *RefreshReport
	lastRunTime time.Time
}

func NewRefreshWorker(catalog *CatalogService, pipelines []SourcePipeline, setLimit int, interval, runBudget time.Duration) *RefreshWorker {
	if setLimit <= 0 {
		setLimit = defaultSetLimit
	}
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if runBudget <= 0 {
		runBudget = defaultRunBudget
	}

	bySource := make(map[models.Source]SourcePipeline, len(pipelines))
	for _, p := range pipelines {
		bySource[p.Source] = p
	}

	return &RefreshWorker{
		catalog:   catalog,
		pipelines: bySource,
		interval:  interval,
		runBudget: runBudget,
		setLimit:  setLimit,
	}
}

// Start begins the background refresh loop.
func (w *RefreshWorker) Start(ctx context.Context) {
	log.Printf("Refresh worker started: %d coldest sets every %v (budget %v per run)",
		w.setLimit, w.interval, w.runBudget)

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Refresh worker stopping...")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes one scheduler run: pick the coldest groups, refresh
// each in sequence, and assemble the per-group report. Failure in one
// group is recorded and the run moves on; the run as a whole never
// fails. The context deadline lets the run stop cleanly before an
// external execution limit would kill it mid-flight.
func (w *RefreshWorker) RunOnce(ctx context.Context) RefreshReport {
	start := time.Now()
	report := RefreshReport{
		RunID:     uuid.NewString(),
		Success:   true,
		StartedAt: start,
	}

	runCtx, cancel := context.WithTimeout(ctx, w.runBudget)
	defer cancel()

	groups, err := w.catalog.StalestGroups(w.setLimit)
	if err != nil {
		// The catalog being unreadable is the one thing we cannot work
		// around, but it still yields a report, not a raised error.
		log.Printf("Refresh worker: failed to aggregate set groups: %v", err)
		report.Success = false
		report.Error = err.Error()
		w.finishRun(&report, start)
		return report
	}

	log.Printf("Refresh worker: run %s refreshing %d sets", report.RunID, len(groups))

	for _, group := range groups {
		if runCtx.Err() != nil {
			log.Printf("Refresh worker: run %s out of budget, skipping remaining sets", report.RunID)
			report.UpdatedSets = append(report.UpdatedSets, SetReport{
				Set: group.SetID, Count: 0, Status: StatusSkipped,
			})
			metrics.GroupsRefreshedTotal.WithLabelValues(StatusSkipped).Inc()
			continue
		}

		count := w.refreshGroup(runCtx, group)

		status := StatusUpdated
		if count == 0 {
			status = StatusNoData
		}
		report.UpdatedSets = append(report.UpdatedSets, SetReport{
			Set: group.SetID, Count: count, Status: status,
		})
		metrics.GroupsRefreshedTotal.WithLabelValues(status).Inc()
	}

	w.finishRun(&report, start)
	return report
}

// refreshGroup runs Pager -> Normalizer -> Merge for one set group.
// Fetch failures surface as partial (possibly empty) results from the
// pager; they never escape this group.
func (w *RefreshWorker) refreshGroup(ctx context.Context, group models.SetGroup) int {
	pipeline, ok := w.pipelines[group.Source]
	if !ok {
		log.Printf("Refresh worker: no pipeline for source %q (set %s)", group.Source, group.SetID)
		return 0
	}

	baseURL := pipeline.SetURL(group.SetID)
	raw, err := pipeline.Pager.Paginate(ctx, pipeline.Adapter, baseURL)
	if err != nil {
		log.Printf("Refresh worker: set %s pagination ended early with %d records: %v",
			group.SetID, len(raw), err)
	}
	if len(raw) == 0 {
		return 0
	}

	prov := scrape.ProvenanceFor(group.Source, group.SetID, group.SetName)
	batch := make([]models.Card, 0, len(raw))
	for _, r := range raw {
		batch = append(batch, scrape.Normalize(r, prov))
	}

	inserted, updated := w.catalog.MergeBatch(batch)
	log.Printf("Refresh worker: set %s merged %d records (%d new, %d updated)",
		group.SetID, inserted+updated, inserted, updated)
	return inserted + updated
}

func (w *RefreshWorker) finishRun(report *RefreshReport, start time.Time) {
	report.DurationMS = time.Since(start).Milliseconds()

	metrics.RefreshRunsTotal.Inc()
	metrics.RefreshRunDuration.Observe(time.Since(start).Seconds())

	w.mu.Lock()
	w.lastRun = report
	w.lastRunTime = start
	w.mu.Unlock()

	log.Printf("Refresh worker: run %s finished in %dms (%d sets)",
		report.RunID, report.DurationMS, len(report.UpdatedSets))
}

// GetStatus returns the current scheduler status.
func (w *RefreshWorker) GetStatus() RefreshStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return RefreshStatus{
		LastRun:     w.lastRun,
		NextRunTime: w.lastRunTime.Add(w.interval),
		SetLimit:    w.setLimit,
		IntervalMin: w.interval.Minutes(),
	}
}
