package browser

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Str("component", "browser").Logger()

// LaunchOptions configures the headless engine.
type LaunchOptions struct {
	Headless  bool
	Locale    string
	UserAgent string
}

// DefaultLaunchOptions matches what the portals tolerate: headless Chromium
// with a Hebrew locale.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		Headless: true,
		Locale:   "he-IL",
	}
}

type pwBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    LaunchOptions
}

// Launch starts the playwright driver and a Chromium instance.
func Launch(opts LaunchOptions) (Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		stopErr := pw.Stop()
		if stopErr != nil {
			log.Warn().Err(stopErr).Msg("failed to stop playwright after launch error")
		}
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	return &pwBrowser{pw: pw, browser: b, opts: opts}, nil
}

func (b *pwBrowser) NewContext() (Context, error) {
	opts := playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(true),
	}
	if b.opts.Locale != "" {
		opts.Locale = playwright.String(b.opts.Locale)
	}
	if b.opts.UserAgent != "" {
		opts.UserAgent = playwright.String(b.opts.UserAgent)
	}

	ctx, err := b.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("new context: %w", err)
	}
	return &pwContext{ctx: ctx}, nil
}

func (b *pwBrowser) Close() error {
	if err := b.browser.Close(); err != nil {
		return err
	}
	return b.pw.Stop()
}

type pwContext struct {
	ctx playwright.BrowserContext
}

func (c *pwContext) NewPage() (Page, error) {
	page, err := c.ctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	return &pwPage{page: page}, nil
}

func (c *pwContext) Close() error {
	return c.ctx.Close()
}

type pwPage struct {
	page playwright.Page
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *pwPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   ms(timeout),
	})
	return err
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) WaitForURL(pattern string, timeout time.Duration) error {
	return p.page.WaitForURL(pattern, playwright.PageWaitForURLOptions{Timeout: ms(timeout)})
}

func (p *pwPage) WaitForNetworkIdle(timeout time.Duration) error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: ms(timeout),
	})
}

func (p *pwPage) WaitForTimeout(d time.Duration) {
	p.page.WaitForTimeout(float64(d.Milliseconds()))
}

func (p *pwPage) MainFrame() Frame {
	return &pwFrame{frame: p.page.MainFrame()}
}

func (p *pwPage) Frames() []Frame {
	frames := p.page.Frames()
	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		out = append(out, &pwFrame{frame: f})
	}
	return out
}

func (p *pwPage) HasSelector(selector string) bool {
	count, err := p.page.Locator(selector).Count()
	return err == nil && count > 0
}

func (p *pwPage) Fill(selector, value string) error {
	return p.page.Locator(selector).Fill(value)
}

func (p *pwPage) Click(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).Click(playwright.LocatorClickOptions{Timeout: ms(timeout)})
}

func (p *pwPage) ExpectDownload(timeout time.Duration, action func() error) (Download, error) {
	dl, err := p.page.ExpectDownload(action, playwright.PageExpectDownloadOptions{Timeout: ms(timeout)})
	if err != nil {
		return nil, err
	}
	return &pwDownload{dl: dl}, nil
}

func (p *pwPage) OnResponse(handler func(url string)) func() {
	var stopped atomic.Bool
	p.page.OnResponse(func(resp playwright.Response) {
		if stopped.Load() {
			return
		}
		handler(resp.URL())
	})
	return func() { stopped.Store(true) }
}

func (p *pwPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

func (p *pwPage) Get(url string, timeout time.Duration) (Response, error) {
	resp, err := p.page.Request().Get(url, playwright.APIRequestContextGetOptions{Timeout: ms(timeout)})
	if err != nil {
		return nil, err
	}
	return &pwResponse{resp: resp}, nil
}

func (p *pwPage) Evaluate(script string) (any, error) {
	return p.page.Evaluate(script)
}

func (p *pwPage) Close() error {
	return p.page.Close()
}

type pwFrame struct {
	frame playwright.Frame
}

func (f *pwFrame) URL() string {
	return f.frame.URL()
}

func (f *pwFrame) Count(selector string) (int, error) {
	return f.frame.Locator(selector).Count()
}

func (f *pwFrame) Links(selector string) ([]Link, error) {
	raw, err := f.frame.Locator(selector).EvaluateAll(
		"els => els.map(a => ({href: a.href || '', text: (a.textContent || '').trim()}))")
	if err != nil {
		return nil, err
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	links := make([]Link, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		href, _ := m["href"].(string)
		text, _ := m["text"].(string)
		if href != "" {
			links = append(links, Link{HRef: href, Text: text})
		}
	}
	return links, nil
}

func (f *pwFrame) Evaluate(script string) (any, error) {
	return f.frame.Evaluate(script)
}

func (f *pwFrame) ClickText(text string, timeout time.Duration) error {
	return f.frame.GetByText(text).First().Click(playwright.LocatorClickOptions{Timeout: ms(timeout)})
}

func (f *pwFrame) ClickNth(selector string, index int, timeout time.Duration) error {
	return f.frame.Locator(selector).Nth(index).Click(playwright.LocatorClickOptions{Timeout: ms(timeout)})
}

type pwDownload struct {
	dl playwright.Download
}

func (d *pwDownload) SuggestedFilename() string {
	return d.dl.SuggestedFilename()
}

func (d *pwDownload) Content() ([]byte, error) {
	path, err := d.dl.Path()
	if err != nil {
		return nil, fmt.Errorf("download path: %w", err)
	}
	return os.ReadFile(path)
}

type pwResponse struct {
	resp playwright.APIResponse
}

func (r *pwResponse) Status() int {
	return r.resp.Status()
}

func (r *pwResponse) OK() bool {
	return r.resp.Ok()
}

func (r *pwResponse) Header(name string) string {
	headers := r.resp.Headers()
	if v, ok := headers[strings.ToLower(name)]; ok {
		return v
	}
	return headers[name]
}

func (r *pwResponse) Body() ([]byte, error) {
	return r.resp.Body()
}
