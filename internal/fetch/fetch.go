// Package fetch downloads price files through a page's HTTP session and
// resolves their filenames.
package fetch

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zilazol/price-crawler/internal/browser"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Str("component", "fetch").Logger()

// Timeout is the per-file download budget. Portals serving multi-megabyte
// gzips over slow links need the full 90 seconds.
const Timeout = 90 * time.Second

// The RFC 5987 starred form wins over the plain one when a header carries
// both: filename*=UTF-8''x.gz then filename="x.gz".
var (
	filenameStarPattern  = regexp.MustCompile(`(?i)filename\*=(?:UTF-8'')?"?([^";]+)"?`)
	filenamePlainPattern = regexp.MustCompile(`(?i)filename=(?:UTF-8'')?"?([^";]+)"?`)
)

// Getter issues an HTTP GET with the session cookies attached.
// browser.Page satisfies it.
type Getter interface {
	Get(url string, timeout time.Duration) (browser.Response, error)
}

// ErrSkipped marks soft failures: broken links the crawl steps over rather
// than aborting a retailer.
var ErrSkipped = fmt.Errorf("link skipped")

// URL downloads a file and returns its bytes along with the resolved
// filename. A 404 or 403 returns ErrSkipped; portals list stale links daily
// and those must not count as retailer failures.
func URL(page Getter, rawURL string) ([]byte, string, error) {
	resp, err := page.Get(rawURL, Timeout)
	if err != nil {
		log.Warn().Str("url", rawURL).Err(err).Msg("skipping broken link")
		return nil, "", fmt.Errorf("%w: %s: %v", ErrSkipped, rawURL, err)
	}

	switch resp.Status() {
	case 404, 403:
		log.Warn().Str("url", rawURL).Int("status", resp.Status()).Msg("skipping broken link")
		return nil, "", fmt.Errorf("%w: %s: status %d", ErrSkipped, rawURL, resp.Status())
	}
	if !resp.OK() {
		return nil, "", fmt.Errorf("download failed: %s: status %d", rawURL, resp.Status())
	}

	data, err := resp.Body()
	if err != nil {
		return nil, "", fmt.Errorf("read body: %s: %w", rawURL, err)
	}

	return data, Filename(resp.Header("content-disposition"), rawURL), nil
}

// Filename resolves a download's name from its Content-Disposition header,
// falling back to the last URL path segment and finally "download".
func Filename(contentDisposition, rawURL string) string {
	if match := filenameStarPattern.FindStringSubmatch(contentDisposition); match != nil {
		return strings.TrimSpace(match[1])
	}
	if match := filenamePlainPattern.FindStringSubmatch(contentDisposition); match != nil {
		return strings.TrimSpace(match[1])
	}
	if parsed, err := url.Parse(rawURL); err == nil {
		segments := strings.Split(parsed.Path, "/")
		if last := segments[len(segments)-1]; last != "" {
			return last
		}
	}
	return "download"
}
