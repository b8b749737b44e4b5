package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromLink(t *testing.T) {
	tests := []struct {
		name string
		href string
		text string
		want string
		ok   bool
	}{
		{"iso in url", "https://host/files/2026-08-26/PriceFull.gz", "", "2026-08-26", true},
		{"dd-mm-yyyy", "https://host/26-08-2026/p.gz", "", "2026-08-26", true},
		{"compact yyyymmdd", "PriceFull7290027600007-001-202608260800.gz", "", "2026-08-26", true},
		{"dd/mm/yyyy in text", "https://host/p.gz", "עודכן 26/08/2026", "2026-08-26", true},
		{"yyyy/mm/dd", "https://host/2026/08/26/p.gz", "", "2026-08-26", true},
		{"dotted", "https://host/p.gz", "26.08.2026", "2026-08-26", true},
		{"url wins over text", "https://host/2026-08-25/p.gz", "26/08/2026", "2026-08-25", true},
		{"no date anywhere", "https://host/PriceFull.gz", "download", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFromLink(tt.href, tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRowDate(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		order Order
		want  string
		ok    bool
	}{
		{"eu order", "26/08/2026", OrderDMY, "2026-08-26", true},
		{"us order", "08/26/2026", OrderMDY, "2026-08-26", true},
		{"single digits", "6/8/2026", OrderDMY, "2026-08-06", true},
		{"two digit year", "26/08/26", OrderDMY, "2026-08-26", true},
		{"trailing time dropped", "26/08/2026 07:15", OrderDMY, "2026-08-26", true},
		{"garbage", "yesterday", OrderDMY, "", false},
		{"empty", "  ", OrderDMY, "", false},
		{"impossible month", "26/13/2026", OrderDMY, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRowDate(tt.raw, tt.order)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, ISO(got))
			}
		})
	}
}

func TestIsToday(t *testing.T) {
	now := time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC)

	assert.True(t, IsToday("2026-08-26", now))
	assert.False(t, IsToday("2026-08-25", now))
	assert.False(t, IsToday("", now))
	assert.False(t, IsToday("not-a-date", now))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 8, 26, 0, 1, 0, 0, time.UTC)
	b := time.Date(2026, 8, 26, 23, 59, 0, 0, time.UTC)
	c := time.Date(2026, 8, 27, 0, 0, 1, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(b, c))
}
