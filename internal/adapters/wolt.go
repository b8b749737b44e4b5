package adapters

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/zilazol/price-crawler/internal/types"
)

// WoltDateIndex crawls a directory tree indexed by ISO date: the landing
// page lists YYYY-MM-DD subdirectories and each holds that day's .gz files.
type WoltDateIndex struct{}

func (WoltDateIndex) Name() types.AdapterName { return types.AdapterWoltDateIndex }

const (
	// woltMaxFiles caps one day's haul; the index lists a file per venue
	// and the long tail adds nothing.
	woltMaxFiles = 80

	// woltDateProbes is how many of the newest dates to try before giving
	// up; the newest directory is sometimes still empty.
	woltDateProbes = 3
)

var woltDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func (WoltDateIndex) Crawl(ctx context.Context, env *Env, retailer types.Retailer, src types.Source, result *types.RetailerResult) error {
	if err := env.Page.Goto(src.URL, navTimeout); err != nil {
		result.AddError("navigate: " + err.Error())
		return err
	}
	_ = env.Page.WaitForNetworkIdle(idleTimeout)

	dates := discoverDates(env)
	if len(dates) == 0 {
		result.AddReason("no_dates")
		return nil
	}
	env.Log.Info().Int("dates", len(dates)).Str("newest", dates[0]).Msg("date index listed")

	for i, date := range dates {
		if i >= woltDateProbes {
			break
		}
		links := collectDayLinks(env, src.URL, date)
		if len(links) == 0 {
			continue
		}
		if i > 0 {
			result.AddReason("date_fallback:" + date)
		}
		if len(links) > woltMaxFiles {
			links = links[:woltMaxFiles]
		}
		result.LinksFound = len(links)
		downloadAll(ctx, env, links, result)
		return nil
	}

	result.AddReason("no_files_in_recent_dates")
	return nil
}

// discoverDates lists the index's date subdirectories, newest first.
func discoverDates(env *Env) []string {
	links, err := env.Page.MainFrame().Links("a[href]")
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var dates []string
	for _, link := range links {
		segment := lastPathSegment(link.HRef)
		if segment == "" {
			segment = strings.TrimSuffix(strings.TrimSpace(link.Text), "/")
		}
		if !woltDatePattern.MatchString(segment) {
			continue
		}
		if _, dup := seen[segment]; dup {
			continue
		}
		seen[segment] = struct{}{}
		dates = append(dates, segment)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// collectDayLinks opens one date directory and returns its .gz files.
func collectDayLinks(env *Env, baseURL, date string) []string {
	dayURL := strings.TrimRight(baseURL, "/") + "/" + date + "/"
	if err := env.Page.Goto(dayURL, 30*time.Second); err != nil {
		env.Log.Warn().Str("date", date).Err(err).Msg("date directory failed")
		return nil
	}
	env.Page.WaitForTimeout(500 * time.Millisecond)

	links, err := env.Page.MainFrame().Links("a[href$='.gz' i]")
	if err != nil {
		return nil
	}
	var out []string
	for _, link := range links {
		if abs, ok := absolutize(dayURL, link.HRef); ok {
			out = append(out, abs)
		}
	}
	return uniqueSorted(out)
}

func lastPathSegment(href string) string {
	href = strings.TrimSuffix(strings.TrimSpace(href), "/")
	if idx := strings.LastIndexByte(href, '/'); idx >= 0 {
		return href[idx+1:]
	}
	return href
}
