package adapters

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/zilazol/price-crawler/internal/browser"
	"github.com/zilazol/price-crawler/internal/dates"
	"github.com/zilazol/price-crawler/internal/types"
)

// Bina crawls the Bina Projects portal family. These sites hide downloads
// behind onclick="Download('file.gz')" buttons instead of anchors, so the
// primary path clicks buttons and captures the browser downloads.
type Bina struct{}

func (Bina) Name() types.AdapterName { return types.AdapterBina }

const (
	// PseudoLinkPrefix marks a discovered filename that must be fetched by
	// clicking its button rather than by HTTP GET.
	PseudoLinkPrefix = "download_button:"

	clickDownloadTimeout = 20 * time.Second
	clickThrottle        = 200 * time.Millisecond
)

var (
	tabCandidates = []string{"מחיר מלא", "Price Full", "PriceFull", "Promo", "Promotions", "Stores", "חנויות"}

	onclickPattern = regexp.MustCompile(`(?i)Download\(['"]([^'"]+)['"]?\)`)
	rowDatePattern = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
)

// binaButton is one Download() control with its table-row date.
type binaButton struct {
	Filename string
	Date     string
	Index    int
}

func (Bina) Crawl(ctx context.Context, env *Env, retailer types.Retailer, src types.Source, result *types.RetailerResult) error {
	if err := env.Page.Goto(src.URL, navTimeout); err != nil {
		result.AddError("navigate: " + err.Error())
		return err
	}
	frame := contentFrame(env.Page)
	_ = env.Page.WaitForNetworkIdle(10 * time.Second)
	env.Page.WaitForTimeout(2 * time.Second)

	buttons := collectButtons(env, frame, src.TodayOnly())
	if len(buttons) == 0 && src.TodayOnly() {
		// Nothing stamped today. Some sites run their generator late, so a
		// second unfiltered pass beats returning empty-handed.
		buttons = collectButtons(env, frame, false)
		if len(buttons) > 0 {
			result.AddReason("used_unfiltered_fallback")
		}
	}

	if len(buttons) == 0 {
		if tabClicked := openTab(env, frame); tabClicked {
			buttons = collectButtons(env, frame, src.TodayOnly())
		}
	}

	if len(buttons) > 0 {
		result.LinksFound = len(buttons)
		for _, btn := range buttons {
			env.Log.Debug().Str("link", PseudoLinkPrefix+btn.Filename).Str("date", btn.Date).Msg("download control")
		}
		clickDownloads(ctx, env, frame, buttons, result)
		return nil
	}

	// No buttons anywhere. Degrade through anchors, then network capture.
	if links := collectArchiveAnchors(env.Page); len(links) > 0 {
		result.LinksFound = len(links)
		result.AddReason("used_dom_links")
		downloadAll(ctx, env, links, result)
		return nil
	}

	if links := captureNetworkURLs(env, frame); len(links) > 0 {
		result.LinksFound = len(links)
		result.AddReason("used_network_capture")
		downloadAll(ctx, env, links, result)
		return nil
	}

	result.AddReason("no_dom_links")
	screenshot(ctx, env, retailer.Slug, "bina_no_links")
	env.Log.Warn().Str("url", env.Page.URL()).Int("frames", len(env.Page.Frames())).Msg("no download controls found")
	return nil
}

// contentFrame locates the document holding the table. Most sites render it
// directly; the framed ones put it behind Main.aspx or Default.aspx.
func contentFrame(page browser.Page) browser.Frame {
	frames := page.Frames()
	if len(frames) > 1 {
		for _, f := range frames {
			if strings.Contains(f.URL(), "Main.aspx") || strings.Contains(f.URL(), "Default.aspx") {
				return f
			}
		}
		main := page.MainFrame()
		for _, f := range frames {
			if f != main {
				return f
			}
		}
	}
	return page.MainFrame()
}

const buttonScanScript = `() => {
	const out = [];
	document.querySelectorAll('table tr, tbody tr').forEach(row => {
		const btn = row.querySelector("button[onclick*='Download'], button[onclick*='download']");
		if (!btn) return;
		const cells = Array.from(row.querySelectorAll('td')).map(td => (td.textContent || '').trim());
		out.push({onclick: btn.getAttribute('onclick') || '', row: cells.join(' | ')});
	});
	return out;
}`

// collectButtons enumerates every Download() control with its row date in a
// single page-side pass. The table stamps rows DD/MM/YYYY; with the filter
// on, rows from other days or with no readable date are skipped.
func collectButtons(env *Env, frame browser.Frame, todayOnly bool) []binaButton {
	raw, err := frame.Evaluate(buttonScanScript)
	if err != nil {
		env.Log.Debug().Err(err).Msg("button scan failed")
		return nil
	}

	now := env.now()
	var buttons []binaButton
	for i, row := range asMaps(raw) {
		onclick, _ := row["onclick"].(string)
		match := onclickPattern.FindStringSubmatch(onclick)
		if match == nil {
			continue
		}
		filename := match[1]
		low := strings.ToLower(filename)
		if !strings.HasSuffix(low, ".gz") && !strings.HasSuffix(low, ".zip") {
			continue
		}

		rowText, _ := row["row"].(string)
		date := rowDatePattern.FindString(rowText)
		if todayOnly {
			rowDate, parsed := dates.ParseRowDate(date, dates.OrderDMY)
			if !parsed || !dates.SameDay(rowDate, now) {
				continue
			}
		}
		buttons = append(buttons, binaButton{Filename: filename, Date: date, Index: i})
	}

	env.Log.Info().Int("buttons", len(buttons)).Bool("today_only", todayOnly).Msg("download buttons scanned")
	return buttons
}

// clickDownloads arms a download expectation, clicks each selected button
// and feeds the captured bytes to the pipeline. Failures accumulate; a
// single stuck button must not strand the rest of the day's files.
func clickDownloads(ctx context.Context, env *Env, frame browser.Frame, buttons []binaButton, result *types.RetailerResult) {
	const buttonSelector = "button[onclick*='Download'], button[onclick*='download']"

	for i, btn := range buttons {
		dl, err := env.Page.ExpectDownload(clickDownloadTimeout, func() error {
			return frame.ClickNth(buttonSelector, btn.Index, 5*time.Second)
		})
		if err != nil {
			result.AddError(fmt.Sprintf("click_download %s: %v", btn.Filename, err))
			continue
		}

		name := dl.SuggestedFilename()
		if name == "" {
			name = btn.Filename
		}
		data, err := dl.Content()
		if err != nil {
			result.AddError(fmt.Sprintf("download_read %s: %v", name, err))
			continue
		}
		if err := env.Processor.Process(ctx, data, name, result); err != nil {
			result.AddError(fmt.Sprintf("process %s: %v", name, err))
		}

		if i < len(buttons)-1 {
			env.Page.WaitForTimeout(clickThrottle)
		}
	}
}

// openTab clicks the first matching listing tab so the table renders.
func openTab(env *Env, frame browser.Frame) bool {
	for _, text := range tabCandidates {
		if err := frame.ClickText(text, 2*time.Second); err == nil {
			env.Page.WaitForTimeout(2 * time.Second)
			return true
		}
	}
	return false
}

// collectArchiveAnchors scans every frame for direct .gz/.zip anchors.
func collectArchiveAnchors(page browser.Page) []string {
	const selector = "a[href$='.gz'], a[href*='.gz'], a[href$='.zip'], a[href*='.zip']"
	var links []string
	for _, frame := range framesOf(page) {
		count, err := frame.Count(selector)
		if err != nil || count == 0 {
			continue
		}
		found, err := frame.Links(selector)
		if err != nil {
			continue
		}
		for _, link := range found {
			if abs, ok := absolutize(page.URL(), link.HRef); ok {
				links = append(links, abs)
			}
		}
	}
	return uniqueSorted(links)
}

// captureNetworkURLs installs a response listener, pokes the first Download
// control and keeps whatever archive-looking URLs went over the wire.
func captureNetworkURLs(env *Env, frame browser.Frame) []string {
	var mu sync.Mutex
	var captured []string
	remove := env.Page.OnResponse(func(url string) {
		low := strings.ToLower(url)
		for _, marker := range []string{".zip", ".gz", "pricefull", "promo", "stores", "download"} {
			if strings.Contains(low, marker) {
				mu.Lock()
				captured = append(captured, url)
				mu.Unlock()
				return
			}
		}
	})
	defer remove()

	if err := frame.ClickNth("button[onclick*='Download']", 0, 5*time.Second); err == nil {
		env.Page.WaitForTimeout(2 * time.Second)
	}
	return uniqueSorted(captured)
}
