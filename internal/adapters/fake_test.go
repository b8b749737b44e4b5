package adapters

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zilazol/price-crawler/internal/browser"
	"github.com/zilazol/price-crawler/internal/dedup"
	"github.com/zilazol/price-crawler/internal/pipeline"
)

// fakeFrame is a scripted browser.Frame.
type fakeFrame struct {
	url        string
	links      map[string][]browser.Link
	linksFn    func(selector string) []browser.Link
	evalResult any
	evalErr    error
	clickTexts map[string]bool
	clickedNth []string
	clickErr   error
}

func (f *fakeFrame) URL() string { return f.url }

func (f *fakeFrame) Count(selector string) (int, error) {
	found, _ := f.Links(selector)
	return len(found), nil
}

func (f *fakeFrame) Links(selector string) ([]browser.Link, error) {
	if f.linksFn != nil {
		return f.linksFn(selector), nil
	}
	return f.links[selector], nil
}

func (f *fakeFrame) Evaluate(string) (any, error) { return f.evalResult, f.evalErr }

func (f *fakeFrame) ClickText(text string, _ time.Duration) error {
	if f.clickTexts[text] {
		return nil
	}
	return fmt.Errorf("no element with text %q", text)
}

func (f *fakeFrame) ClickNth(selector string, index int, _ time.Duration) error {
	if f.clickErr != nil {
		return f.clickErr
	}
	f.clickedNth = append(f.clickedNth, fmt.Sprintf("%s#%d", selector, index))
	return nil
}

// fakeResponse is a canned HTTP response.
type fakeResponse struct {
	status  int
	body    []byte
	headers map[string]string
}

func (r *fakeResponse) Status() int { return r.status }
func (r *fakeResponse) OK() bool    { return r.status >= 200 && r.status < 300 }
func (r *fakeResponse) Header(name string) string {
	return r.headers[strings.ToLower(name)]
}
func (r *fakeResponse) Body() ([]byte, error) { return r.body, nil }

// fakeDownload is a captured click-download.
type fakeDownload struct {
	name string
	data []byte
}

func (d *fakeDownload) SuggestedFilename() string { return d.name }
func (d *fakeDownload) Content() ([]byte, error)  { return d.data, nil }

// fakePage is a scripted browser.Page. Navigation just records URLs; fetches
// and downloads are served from canned tables.
type fakePage struct {
	url       string
	main      *fakeFrame
	frames    []browser.Frame
	navigated []string
	gotoErr   map[string]error

	selectors map[string]bool
	filled    map[string]string
	clicked   []string

	waitURLErr  error
	responses   map[string]*fakeResponse
	downloads   []browser.Download
	downloadErr error
	screenshots []string
	onResponse  func(url string)
}

func newFakePage(url string) *fakePage {
	main := &fakeFrame{url: url}
	return &fakePage{
		url:       url,
		main:      main,
		frames:    []browser.Frame{main},
		selectors: map[string]bool{},
		filled:    map[string]string{},
		responses: map[string]*fakeResponse{},
	}
}

func (p *fakePage) Goto(url string, _ time.Duration) error {
	if err := p.gotoErr[url]; err != nil {
		return err
	}
	p.navigated = append(p.navigated, url)
	p.url = url
	p.main.url = url
	return nil
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) WaitForURL(string, time.Duration) error { return p.waitURLErr }

func (p *fakePage) WaitForNetworkIdle(time.Duration) error { return nil }

func (p *fakePage) WaitForTimeout(time.Duration) {}

func (p *fakePage) MainFrame() browser.Frame { return p.main }

func (p *fakePage) Frames() []browser.Frame { return p.frames }

func (p *fakePage) HasSelector(selector string) bool { return p.selectors[selector] }

func (p *fakePage) Fill(selector, value string) error {
	p.filled[selector] = value
	return nil
}

func (p *fakePage) Click(selector string, _ time.Duration) error {
	p.clicked = append(p.clicked, selector)
	return nil
}

func (p *fakePage) ExpectDownload(_ time.Duration, action func() error) (browser.Download, error) {
	if err := action(); err != nil {
		return nil, err
	}
	if p.downloadErr != nil {
		return nil, p.downloadErr
	}
	if len(p.downloads) == 0 {
		return nil, fmt.Errorf("no download fired")
	}
	dl := p.downloads[0]
	p.downloads = p.downloads[1:]
	return dl, nil
}

func (p *fakePage) OnResponse(handler func(url string)) (remove func()) {
	p.onResponse = handler
	return func() { p.onResponse = nil }
}

func (p *fakePage) Screenshot(path string) error {
	p.screenshots = append(p.screenshots, path)
	return nil
}

func (p *fakePage) Get(url string, _ time.Duration) (browser.Response, error) {
	if resp, ok := p.responses[url]; ok {
		return resp, nil
	}
	return &fakeResponse{status: 404}, nil
}

func (p *fakePage) Evaluate(string) (any, error) { return nil, nil }

func (p *fakePage) Close() error { return nil }

// testEnv wires a fake page to a gateway-less processor. The today-filter
// clock is pinned to 2026-08-26.
func testEnv(page *fakePage) *Env {
	return &Env{
		Page:      page,
		Processor: pipeline.New("testchain", "Test Chain", "run-test", dedup.NewSet(), nil, nil),
		Log:       zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC) },
	}
}
