package adapters

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilazol/price-crawler/internal/browser"
	"github.com/zilazol/price-crawler/internal/types"
)

const woltIndexURL = "https://cdn.wolt.com/prices/"

func TestWoltPicksNewestDateWithFiles(t *testing.T) {
	page := newFakePage(woltIndexURL)
	page.main.linksFn = func(selector string) []browser.Link {
		switch {
		case selector == "a[href]":
			return []browser.Link{
				{HRef: "2026-08-26/"},
				{HRef: "2026-08-25/"},
				{HRef: "2026-08-24/"},
				{HRef: "../"},
			}
		case selector == "a[href$='.gz' i]" && strings.Contains(page.URL(), "2026-08-26"):
			// Newest directory exists but is still empty.
			return nil
		case selector == "a[href$='.gz' i]" && strings.Contains(page.URL(), "2026-08-25"):
			return []browser.Link{
				{HRef: "venue-1.gz"},
				{HRef: "venue-2.gz"},
			}
		}
		return nil
	}
	page.responses["https://cdn.wolt.com/prices/2026-08-25/venue-1.gz"] = &fakeResponse{
		status: 200,
		body:   []byte(`<Prices><Item><ItemCode>1</ItemCode><ItemPrice>12.5</ItemPrice></Item></Prices>`),
	}
	page.responses["https://cdn.wolt.com/prices/2026-08-25/venue-2.gz"] = &fakeResponse{
		status: 200,
		body:   []byte(`<Prices><Item><ItemCode>2</ItemCode><ItemPrice>7.0</ItemPrice></Item></Prices>`),
	}

	env := testEnv(page)
	result := &types.RetailerResult{}
	err := WoltDateIndex{}.Crawl(context.Background(), env, types.Retailer{Slug: "wolt"}, types.Source{URL: woltIndexURL}, result)
	require.NoError(t, err)

	assert.Equal(t, 2, result.LinksFound)
	assert.Equal(t, 2, result.FilesDownloaded)
	assert.Contains(t, result.Reasons, "date_fallback:2026-08-25")
}

func TestWoltNoDates(t *testing.T) {
	page := newFakePage(woltIndexURL)
	env := testEnv(page)
	result := &types.RetailerResult{}

	require.NoError(t, WoltDateIndex{}.Crawl(context.Background(), env, types.Retailer{Slug: "wolt"}, types.Source{URL: woltIndexURL}, result))
	assert.Contains(t, result.Reasons, "no_dates")
}

func TestWoltFileCap(t *testing.T) {
	var day []browser.Link
	for i := 0; i < 100; i++ {
		day = append(day, browser.Link{HRef: fmt.Sprintf("venue-%03d.gz", i)})
	}
	page := newFakePage(woltIndexURL)
	page.main.linksFn = func(selector string) []browser.Link {
		if selector == "a[href]" {
			return []browser.Link{{HRef: "2026-08-26/"}}
		}
		return day
	}

	env := testEnv(page)
	result := &types.RetailerResult{}
	require.NoError(t, WoltDateIndex{}.Crawl(context.Background(), env, types.Retailer{Slug: "wolt"}, types.Source{URL: woltIndexURL}, result))
	assert.Equal(t, woltMaxFiles, result.LinksFound)
}

func TestDiscoverDatesSortsNewestFirst(t *testing.T) {
	page := newFakePage(woltIndexURL)
	page.main.links = map[string][]browser.Link{
		"a[href]": {
			{HRef: "2026-08-24/"},
			{HRef: "2026-08-26/"},
			{HRef: "2026-08-25/"},
			{HRef: "2026-08-26/"},
			{HRef: "notes.txt"},
		},
	}
	env := testEnv(page)
	assert.Equal(t, []string{"2026-08-26", "2026-08-25", "2026-08-24"}, discoverDates(env))
}
