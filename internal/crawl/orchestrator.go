// Package crawl drives scheduled runs: it fans out per-retailer workers,
// walks each retailer's sources in priority order and assembles the run
// manifest.
package crawl

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/zilazol/price-crawler/internal/adapters"
	"github.com/zilazol/price-crawler/internal/browser"
	"github.com/zilazol/price-crawler/internal/credentials"
	"github.com/zilazol/price-crawler/internal/database"
	"github.com/zilazol/price-crawler/internal/dedup"
	"github.com/zilazol/price-crawler/internal/fetch"
	"github.com/zilazol/price-crawler/internal/pipeline"
	"github.com/zilazol/price-crawler/internal/storage"
	"github.com/zilazol/price-crawler/internal/types"
)

// Deps are the shared collaborators a retailer worker needs. The browser is
// launched per worker; everything else is shared and safe for concurrent use.
type Deps struct {
	Launch      func() (browser.Browser, error)
	Gateway     database.Gateway
	Store       storage.Storage
	Credentials *credentials.Store
	Throttle    *fetch.Throttle
	Log         zerolog.Logger
}

// crawlRetailer runs one retailer end to end: fresh browser, one context,
// one page, sources in priority order, short-circuit after the first source
// that actually downloads. Always returns at least one result.
func crawlRetailer(ctx context.Context, deps *Deps, retailer types.Retailer, runID string) []*types.RetailerResult {
	log := deps.Log.With().Str("retailer", retailer.Slug).Logger()
	started := time.Now()
	defer func() {
		retailerDuration.WithLabelValues(retailer.Slug).Observe(time.Since(started).Seconds())
	}()

	sources := make([]types.Source, len(retailer.Sources))
	copy(sources, retailer.Sources)
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Priority > sources[j].Priority })

	b, err := deps.Launch()
	if err != nil {
		return []*types.RetailerResult{failedResult(retailer, sources, "browser_launch: "+err.Error())}
	}
	defer func() {
		b.Close()
		// Chromium holds tens of megabytes per context; nudge the runtime
		// to give them back before the next worker starts.
		runtime.GC()
	}()

	bctx, err := b.NewContext()
	if err != nil {
		return []*types.RetailerResult{failedResult(retailer, sources, "browser_context: "+err.Error())}
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return []*types.RetailerResult{failedResult(retailer, sources, "browser_page: "+err.Error())}
	}
	defer page.Close()

	env := &adapters.Env{
		Page:        page,
		Processor:   pipeline.New(retailer.Slug, retailer.Name, runID, dedup.NewSet(), deps.Gateway, deps.Store),
		Credentials: deps.Credentials,
		Throttle:    deps.Throttle,
		Screens:     deps.Store,
		Log:         log,
	}

	var results []*types.RetailerResult
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}

		name := adapters.Select(src)
		result := &types.RetailerResult{
			RetailerID: retailer.Slug,
			SourceURL:  src.URL,
			Adapter:    string(name),
			Timestamp:  time.Now().UTC(),
		}

		if err := adapters.For(name).Crawl(ctx, env, retailer, src, result); err != nil {
			log.Error().Str("source", src.URL).Str("adapter", string(name)).Err(err).Msg("source failed")
		}
		results = append(results, result)

		log.Info().
			Str("source", src.URL).
			Str("adapter", string(name)).
			Int("links", result.LinksFound).
			Int("downloaded", result.FilesDownloaded).
			Int("skipped_dupes", result.SkippedDupes).
			Msg("source done")

		if result.FilesDownloaded > 0 {
			log.Info().Str("source", src.URL).Msg("source chosen")
			break
		}
	}

	if len(results) == 0 {
		results = append(results, failedResult(retailer, sources, "no_sources_attempted"))
	}
	return results
}

func failedResult(retailer types.Retailer, sources []types.Source, msg string) *types.RetailerResult {
	sourceURL := ""
	if len(sources) > 0 {
		sourceURL = sources[0].URL
	}
	result := &types.RetailerResult{
		RetailerID: retailer.Slug,
		SourceURL:  sourceURL,
		Adapter:    "unknown",
		Timestamp:  time.Now().UTC(),
	}
	result.AddError(msg)
	return result
}
