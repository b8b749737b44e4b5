package fetch

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Throttle enforces a per-host request rate so a retailer listing dozens of
// files does not hammer its portal.
type Throttle struct {
	mu      sync.Mutex
	perHost map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// NewThrottle builds a throttle allowing rps requests per second per host.
func NewThrottle(rps float64, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		perHost: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Wait blocks until the host's limiter admits another request or the
// context ends. Unparseable URLs pass through ungated.
func (t *Throttle) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil
	}
	return t.limiter(parsed.Host).Wait(ctx)
}

func (t *Throttle) limiter(host string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	lim, ok := t.perHost[host]
	if !ok {
		lim = rate.NewLimiter(t.rps, t.burst)
		t.perHost[host] = lim
	}
	return lim
}

// Client couples a page session with a throttle.
type Client struct {
	page     Getter
	throttle *Throttle
}

// NewClient wraps a page for throttled downloads. A nil throttle disables
// rate limiting.
func NewClient(page Getter, throttle *Throttle) *Client {
	return &Client{page: page, throttle: throttle}
}

// Fetch rate-limits then downloads one URL.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx, rawURL); err != nil {
			return nil, "", err
		}
	}
	return URL(c.page, rawURL)
}
