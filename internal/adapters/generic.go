package adapters

import (
	"context"
	"strings"
	"time"

	"github.com/zilazol/price-crawler/internal/browser"
	"github.com/zilazol/price-crawler/internal/dates"
	"github.com/zilazol/price-crawler/internal/types"
)

// Generic crawls directory-style portals that expose price files as plain
// anchors, possibly inside child frames.
type Generic struct{}

func (Generic) Name() types.AdapterName { return types.AdapterGeneric }

var flatSelectors = []string{
	"a[download]",
	"a[href*='download']",
	"a[href*='file']",
	"a[href$='.xml' i]",
	"a[href$='.gz' i]",
	"a[href$='.zip' i]",
	"a[href*='.xml?' i]",
	"a[href*='.gz?' i]",
	"a[href*='.zip?' i]",
}

var downloadSuffixes = []string{".xml", ".gz", ".zip"}

func (Generic) Crawl(ctx context.Context, env *Env, retailer types.Retailer, src types.Source, result *types.RetailerResult) error {
	if err := env.Page.Goto(src.URL, navTimeout); err != nil {
		result.AddError("navigate: " + err.Error())
		return err
	}
	_ = env.Page.WaitForNetworkIdle(idleTimeout)
	env.Page.WaitForTimeout(2 * time.Second)

	patterns := src.DownloadPatterns
	if len(patterns) == 0 {
		patterns = retailer.DownloadPatterns
	}

	links := collectFlatLinks(env, patterns, src.TodayOnly())
	if len(links) == 0 {
		// Slow portals render the listing after idle; one more wait, one
		// more scan.
		_ = env.Page.WaitForNetworkIdle(8 * time.Second)
		env.Page.WaitForTimeout(800 * time.Millisecond)
		links = collectFlatLinks(env, patterns, src.TodayOnly())
	}
	result.LinksFound = len(links)

	if len(links) == 0 {
		result.AddReason("no_dom_links")
		screenshot(ctx, env, retailer.Slug, "generic_no_links")
		env.Log.Warn().Str("url", env.Page.URL()).Msg("no links found")
		return nil
	}

	downloadAll(ctx, env, links, result)
	return nil
}

// collectFlatLinks scans every frame with every selector, keeps hrefs that
// look like price files, applies the today-filter and returns sorted unique
// absolute URLs. Undated links are skipped when filtering; portals list
// months of history and over-downloading is worse than missing a stray file.
func collectFlatLinks(env *Env, patterns []string, todayOnly bool) []string {
	selectors := make([]string, 0, len(flatSelectors)+2*len(patterns))
	selectors = append(selectors, flatSelectors...)
	for _, p := range patterns {
		p = strings.ToLower(p)
		selectors = append(selectors,
			"a[href$='"+p+"' i]",
			"a[href*='"+p+"?' i]")
	}

	now := env.now()
	var links []string
	for _, frame := range framesOf(env.Page) {
		for _, sel := range selectors {
			count, err := frame.Count(sel)
			if err != nil || count == 0 {
				continue
			}
			found, err := frame.Links(sel)
			if err != nil {
				continue
			}
			for _, link := range found {
				abs, ok := absolutize(env.Page.URL(), link.HRef)
				if !ok {
					continue
				}
				if !looksLikePriceFile(abs, patterns) {
					continue
				}
				if todayOnly {
					iso, found := dates.ExtractFromLink(abs, link.Text)
					if !found || !dates.IsToday(iso, now) {
						continue
					}
				}
				links = append(links, abs)
			}
		}
	}
	return uniqueSorted(links)
}

// looksLikePriceFile is deliberately loose: portals mislabel extensions, so
// the transparency-file keywords count as much as the suffix.
func looksLikePriceFile(rawURL string, patterns []string) bool {
	u := strings.ToLower(rawURL)
	for _, suffix := range downloadSuffixes {
		if strings.HasSuffix(u, suffix) || strings.Contains(u, suffix+"?") {
			return true
		}
	}
	for _, p := range patterns {
		if strings.HasSuffix(u, strings.ToLower(p)) {
			return true
		}
	}
	return strings.Contains(u, "pricefull") || strings.Contains(u, "promo") ||
		strings.Contains(u, "stores") || strings.Contains(u, "price")
}

// framesOf lists the page's frames, falling back to the main frame when the
// engine reports none.
func framesOf(page browser.Page) []browser.Frame {
	if frames := page.Frames(); len(frames) > 0 {
		return frames
	}
	return []browser.Frame{page.MainFrame()}
}
