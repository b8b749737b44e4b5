// Package browser defines the narrow automation surface adapters crawl
// through. Production wires the playwright implementation; tests drive
// adapters with in-memory fakes.
package browser

import (
	"time"
)

// Browser owns the underlying engine process.
type Browser interface {
	// NewContext opens an isolated session. Each retailer worker gets its
	// own context so cookies and auth never leak between chains.
	NewContext() (Context, error)
	Close() error
}

// Context is an isolated cookie/session scope.
type Context interface {
	NewPage() (Page, error)
	Close() error
}

// Link is an anchor collected from a document.
type Link struct {
	HRef string
	Text string
}

// Page is a single tab.
type Page interface {
	Goto(url string, timeout time.Duration) error
	URL() string
	WaitForURL(pattern string, timeout time.Duration) error
	WaitForNetworkIdle(timeout time.Duration) error
	WaitForTimeout(d time.Duration)

	MainFrame() Frame
	Frames() []Frame

	HasSelector(selector string) bool
	Fill(selector, value string) error
	Click(selector string, timeout time.Duration) error

	// ExpectDownload runs action and waits for the download it triggers.
	ExpectDownload(timeout time.Duration, action func() error) (Download, error)

	// OnResponse registers a network response observer and returns a
	// function that stops delivery.
	OnResponse(handler func(url string)) (remove func())

	Screenshot(path string) error

	// Get issues a plain HTTP request through the page's session, carrying
	// its cookies. Used for direct file downloads.
	Get(url string, timeout time.Duration) (Response, error)

	Evaluate(script string) (any, error)
	Close() error
}

// Frame is one document within a page; portals built on framesets hide
// their listings a level down.
type Frame interface {
	URL() string
	Count(selector string) (int, error)
	Links(selector string) ([]Link, error)
	Evaluate(script string) (any, error)
	ClickText(text string, timeout time.Duration) error
	ClickNth(selector string, index int, timeout time.Duration) error
}

// Download is a completed browser-initiated file download.
type Download interface {
	SuggestedFilename() string
	Content() ([]byte, error)
}

// Response is an HTTP response from Page.Get.
type Response interface {
	Status() int
	OK() bool
	Header(name string) string
	Body() ([]byte, error)
}
