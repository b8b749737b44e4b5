package crawl

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/zilazol/price-crawler/internal/pkg/cuid2"
	"github.com/zilazol/price-crawler/internal/storage"
	"github.com/zilazol/price-crawler/internal/types"
)

const (
	// DefaultConcurrency bounds simultaneous browsers. Three keeps peak
	// memory under control on a small worker VM.
	DefaultConcurrency = 3

	// DefaultDeadline caps a whole run. Portals occasionally hang a worker
	// for an hour; the run still has to finish the same day.
	DefaultDeadline = 5 * time.Hour
)

// Controller executes crawl runs over a retailer list.
type Controller struct {
	deps        *Deps
	concurrency int64
	deadline    time.Duration
}

// Option tweaks a Controller.
type Option func(*Controller)

// WithConcurrency overrides the worker fan-out.
func WithConcurrency(n int64) Option {
	return func(c *Controller) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithDeadline overrides the run deadline. Zero disables it.
func WithDeadline(d time.Duration) Option {
	return func(c *Controller) { c.deadline = d }
}

// NewController builds a run controller around shared worker dependencies.
func NewController(deps *Deps, opts ...Option) *Controller {
	c := &Controller{
		deps:        deps,
		concurrency: DefaultConcurrency,
		deadline:    DefaultDeadline,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRunID mints a run identifier: UTC timestamp plus a short random
// suffix, sortable and unique enough for manifest keys.
func NewRunID() string {
	return time.Now().UTC().Format("20060102T150405Z") + "-" + cuid2.RandomId(8)
}

// Run crawls every retailer in the list under the concurrency cap and the
// run deadline, then uploads the manifest. Hitting the deadline is not an
// error: the manifest reports partial results with TimedOut set.
func (c *Controller) Run(ctx context.Context, list []types.Retailer, trigger string) (*types.RunManifest, error) {
	runID := NewRunID()
	started := time.Now().UTC()
	runsStarted.WithLabelValues(trigger).Inc()
	log := c.deps.Log.With().Str("run_id", runID).Logger()
	log.Info().Int("retailers", len(list)).Int64("concurrency", c.concurrency).Msg("run started")

	runCtx := ctx
	if c.deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.deadline)
		defer cancel()
	}

	if c.deps.Gateway != nil {
		if err := c.deps.Gateway.SyncRetailers(runCtx, list); err != nil {
			log.Error().Err(err).Msg("retailer sync failed")
		}
	}

	sem := semaphore.NewWeighted(c.concurrency)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*types.RetailerResult
	)

	for _, retailer := range list {
		if !retailer.Enabled() {
			continue
		}
		wg.Add(1)
		go func(retailer types.Retailer) {
			defer wg.Done()
			if err := sem.Acquire(runCtx, 1); err != nil {
				// Deadline hit while queued; report the retailer as
				// skipped instead of dropping it silently.
				skipped := failedResult(retailer, retailer.Sources, "run_deadline: "+err.Error())
				skipped.AddReason("deadline_skipped")
				mu.Lock()
				results = append(results, skipped)
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			retailerResults := crawlRetailer(runCtx, c.deps, retailer, runID)
			mu.Lock()
			results = append(results, retailerResults...)
			mu.Unlock()
		}(retailer)
	}
	wg.Wait()

	manifest := buildManifest(runID, started, list, results, errors.Is(runCtx.Err(), context.DeadlineExceeded))
	if manifest.TimedOut {
		runTimeouts.Inc()
	}

	if c.deps.Store != nil {
		// The deadline must not also kill the manifest; it is the only
		// record a partial run leaves behind.
		uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
		defer cancel()
		if err := storage.UploadManifest(uploadCtx, c.deps.Store, manifest); err != nil {
			log.Error().Err(err).Msg("manifest upload failed")
		}
	}

	log.Info().
		Int("succeeded", manifest.Succeeded).
		Int("failed", manifest.Failed).
		Bool("timed_out", manifest.TimedOut).
		Dur("elapsed", time.Since(started)).
		Msg("run finished")
	return manifest, nil
}

// buildManifest folds per-source results into the run summary. A retailer
// succeeds when any of its sources downloaded a file, or when it finished
// clean with nothing new to fetch.
func buildManifest(runID string, started time.Time, list []types.Retailer, results []*types.RetailerResult, timedOut bool) *types.RunManifest {
	type tally struct {
		downloads int
		errors    int
		attempted bool
	}
	perRetailer := make(map[string]*tally, len(list))
	for _, result := range results {
		t := perRetailer[result.RetailerID]
		if t == nil {
			t = &tally{}
			perRetailer[result.RetailerID] = t
		}
		t.attempted = true
		t.downloads += result.FilesDownloaded
		t.errors += len(result.Errors)
		filesDownloaded.WithLabelValues(result.RetailerID).Add(float64(result.FilesDownloaded))
	}

	succeeded, failed := 0, 0
	for slug, t := range perRetailer {
		if t.downloads > 0 || t.errors == 0 {
			succeeded++
			continue
		}
		failed++
		retailerFailures.WithLabelValues(slug).Inc()
	}

	return &types.RunManifest{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Retailers:  len(perRetailer),
		Succeeded:  succeeded,
		Failed:     failed,
		TimedOut:   timedOut,
		Results:    results,
	}
}
