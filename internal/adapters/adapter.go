// Package adapters implements the per-portal crawl protocols. Every Israeli
// grocery chain publishes its price files through one of a handful of portal
// products; each adapter speaks one of them and feeds whatever it downloads
// into the shared pipeline.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zilazol/price-crawler/internal/browser"
	"github.com/zilazol/price-crawler/internal/credentials"
	"github.com/zilazol/price-crawler/internal/fetch"
	"github.com/zilazol/price-crawler/internal/pipeline"
	"github.com/zilazol/price-crawler/internal/storage"
	"github.com/zilazol/price-crawler/internal/types"
)

const (
	navTimeout  = 60 * time.Second
	idleTimeout = 15 * time.Second
)

// Env bundles everything an adapter needs for one source crawl. The
// orchestrator builds one per retailer and reuses it across that retailer's
// sources.
type Env struct {
	Page        browser.Page
	Processor   *pipeline.Processor
	Credentials *credentials.Store
	Throttle    *fetch.Throttle
	Screens     storage.Storage
	Log         zerolog.Logger

	// Now is injectable for the today-filter tests.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Adapter crawls one source on an already-open page. Implementations record
// link and download counters on the result and must not abort the source for
// individual file failures.
type Adapter interface {
	Name() types.AdapterName
	Crawl(ctx context.Context, env *Env, retailer types.Retailer, src types.Source, result *types.RetailerResult) error
}

// downloadAll fetches plain URLs through the page's session and runs each
// blob through the pipeline. Broken links are stepped over; hard failures
// accumulate on the result.
func downloadAll(ctx context.Context, env *Env, links []string, result *types.RetailerResult) {
	client := fetch.NewClient(env.Page, env.Throttle)
	for _, link := range links {
		data, filename, err := client.Fetch(ctx, link)
		if err != nil {
			if errors.Is(err, fetch.ErrSkipped) {
				continue
			}
			result.AddError(err.Error())
			continue
		}
		if err := env.Processor.Process(ctx, data, filename, result); err != nil {
			result.AddError(fmt.Sprintf("process %s: %v", filename, err))
		}
	}
}

// absolutize resolves an href against the page it was found on. Fragment
// anchors and unparseable hrefs are dropped.
func absolutize(pageURL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

// uniqueSorted dedups and orders links so a run processes files in a stable
// order regardless of DOM layout.
func uniqueSorted(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	sort.Strings(out)
	return out
}

// screenshot captures the page for post-mortem and stashes it in blob
// storage. Diagnostics only, every failure is swallowed.
func screenshot(ctx context.Context, env *Env, retailerSlug, tag string) {
	if env.Page == nil {
		return
	}
	name := fmt.Sprintf("%s-%s.png", tag, env.now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(os.TempDir(), retailerSlug+"-"+name)
	if err := env.Page.Screenshot(path); err != nil {
		env.Log.Warn().Err(err).Msg("screenshot failed")
		return
	}
	defer os.Remove(path)

	if env.Screens == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	key := storage.BuildScreenshotKey(retailerSlug, name)
	if err := env.Screens.Put(ctx, key, data, nil); err != nil {
		env.Log.Warn().Str("key", key).Err(err).Msg("screenshot upload failed")
	}
}
