package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilazol/price-crawler/internal/browser"
)

type fakeResponse struct {
	status  int
	headers map[string]string
	body    []byte
}

func (r *fakeResponse) Status() int { return r.status }
func (r *fakeResponse) OK() bool    { return r.status >= 200 && r.status < 300 }
func (r *fakeResponse) Header(name string) string {
	return r.headers[name]
}
func (r *fakeResponse) Body() ([]byte, error) { return r.body, nil }

type fakeGetter struct {
	responses map[string]*fakeResponse
	err       error
	calls     []string
}

func (g *fakeGetter) Get(url string, _ time.Duration) (browser.Response, error) {
	g.calls = append(g.calls, url)
	if g.err != nil {
		return nil, g.err
	}
	resp, ok := g.responses[url]
	if !ok {
		return &fakeResponse{status: 404}, nil
	}
	return resp, nil
}

func TestURLSuccess(t *testing.T) {
	g := &fakeGetter{responses: map[string]*fakeResponse{
		"https://host/files/PriceFull.gz": {
			status: 200,
			body:   []byte("payload"),
		},
	}}

	data, name, err := URL(g, "https://host/files/PriceFull.gz")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.Equal(t, "PriceFull.gz", name)
}

func TestURLContentDispositionWins(t *testing.T) {
	g := &fakeGetter{responses: map[string]*fakeResponse{
		"https://host/dl?id=7": {
			status:  200,
			headers: map[string]string{"content-disposition": `attachment; filename="PriceFull7290-001.gz"`},
			body:    []byte("x"),
		},
	}}

	_, name, err := URL(g, "https://host/dl?id=7")
	require.NoError(t, err)
	assert.Equal(t, "PriceFull7290-001.gz", name)
}

func TestURLSoftSkips(t *testing.T) {
	for _, status := range []int{404, 403} {
		g := &fakeGetter{responses: map[string]*fakeResponse{
			"https://host/gone.gz": {status: status},
		}}

		_, _, err := URL(g, "https://host/gone.gz")
		assert.ErrorIs(t, err, ErrSkipped)
	}
}

func TestURLNetworkErrorIsSkip(t *testing.T) {
	g := &fakeGetter{err: errors.New("connection reset")}

	_, _, err := URL(g, "https://host/it.gz")
	assert.ErrorIs(t, err, ErrSkipped)
}

func TestURLServerErrorIsHard(t *testing.T) {
	g := &fakeGetter{responses: map[string]*fakeResponse{
		"https://host/it.gz": {status: 500},
	}}

	_, _, err := URL(g, "https://host/it.gz")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSkipped)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		url         string
		want        string
	}{
		{"quoted", `attachment; filename="a.gz"`, "https://h/x", "a.gz"},
		{"bare", `attachment; filename=a.gz`, "https://h/x", "a.gz"},
		{"rfc5987", `attachment; filename*=UTF-8''Price%20Full.gz`, "https://h/x", "Price%20Full.gz"},
		{"starred wins over plain", `attachment; filename="plain.gz"; filename*=UTF-8''starred.gz`, "https://h/x", "starred.gz"},
		{"path fallback", "", "https://h/files/PriceFull.gz?force=1", "PriceFull.gz"},
		{"final fallback", "", "https://h/", "download"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.disposition, tt.url))
		})
	}
}

func TestClientThrottles(t *testing.T) {
	g := &fakeGetter{responses: map[string]*fakeResponse{
		"https://host/a.gz": {status: 200, body: []byte("a")},
		"https://host/b.gz": {status: 200, body: []byte("b")},
	}}
	client := NewClient(g, NewThrottle(100, 1))

	start := time.Now()
	_, _, err := client.Fetch(context.Background(), "https://host/a.gz")
	require.NoError(t, err)
	_, _, err = client.Fetch(context.Background(), "https://host/b.gz")
	require.NoError(t, err)

	// Second request must have waited for the limiter to refill.
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	assert.Len(t, g.calls, 2)
}

func TestThrottleCancelled(t *testing.T) {
	throttle := NewThrottle(0.001, 1)
	require.NoError(t, throttle.Wait(context.Background(), "https://host/a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, throttle.Wait(ctx, "https://host/b"))
}
