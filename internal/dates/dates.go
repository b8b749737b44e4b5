// Package dates normalizes the date formats scattered across portal links,
// file-manager listings and table rows. Everything funnels into ISO
// YYYY-MM-DD so the today-filter compares plain strings.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Order is the slash-date field order a portal uses. Authenticated
// file-manager listings render US order, table portals render EU order.
type Order int

const (
	OrderDMY Order = iota
	OrderMDY
)

const isoLayout = "2006-01-02"

var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(\d{2}-\d{2}-\d{4})`),
	regexp.MustCompile(`(\d{4}\d{2}\d{2})`),
	regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`),
	regexp.MustCompile(`(\d{4}/\d{2}/\d{2})`),
	regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})`),
}

// ExtractFromLink pulls a date out of a URL or, failing that, the link's
// visible text. Four-digit-year ambiguity resolves toward EU day-first
// order, which is what Israeli portals emit in paths. Returns ISO form.
func ExtractFromLink(href, linkText string) (string, bool) {
	if iso, ok := scan(href); ok {
		return iso, true
	}
	if linkText != "" {
		return scan(linkText)
	}
	return "", false
}

func scan(s string) (string, bool) {
	for _, pattern := range linkPatterns {
		match := pattern.FindStringSubmatch(s)
		if match == nil {
			continue
		}
		if iso, ok := normalize(match[1]); ok {
			return iso, true
		}
	}
	return "", false
}

func normalize(raw string) (string, bool) {
	switch {
	case strings.Contains(raw, "-"):
		parts := strings.Split(raw, "-")
		if len(parts) != 3 {
			return "", false
		}
		if len(parts[0]) == 4 {
			return raw, true
		}
		if len(parts[2]) == 4 {
			return parts[2] + "-" + parts[1] + "-" + parts[0], true
		}
	case strings.Contains(raw, "/"):
		parts := strings.Split(raw, "/")
		if len(parts) != 3 {
			return "", false
		}
		if len(parts[0]) == 4 {
			return strings.Join(parts, "-"), true
		}
		if len(parts[2]) == 4 {
			return parts[2] + "-" + parts[1] + "-" + parts[0], true
		}
	case strings.Contains(raw, "."):
		parts := strings.Split(raw, ".")
		if len(parts) == 3 && len(parts[2]) == 4 {
			return parts[2] + "-" + parts[1] + "-" + parts[0], true
		}
	case len(raw) == 8:
		return raw[:4] + "-" + raw[4:6] + "-" + raw[6:8], true
	}
	return "", false
}

// ParseRowDate interprets a slash date from a listing row in the portal's
// declared field order. Accepts one or two digit day/month and an optional
// trailing time component, which is dropped.
func ParseRowDate(raw string, order Order) (time.Time, bool) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return time.Time{}, false
	}
	parts := strings.Split(fields[0], "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	first, second := parts[0], parts[1]
	day, month := first, second
	if order == OrderMDY {
		day, month = second, first
	}
	year := parts[2]
	if len(year) == 2 {
		year = "20" + year
	}

	t, err := time.Parse(isoLayout, fmt.Sprintf("%s-%02s-%02s", year, pad(month), pad(day)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func pad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// IsToday reports whether an ISO date string names the same calendar day as
// now. Empty or malformed dates are never today; callers use that to skip
// undated links rather than over-download.
func IsToday(iso string, now time.Time) bool {
	if iso == "" {
		return false
	}
	parsed, err := time.Parse(isoLayout, iso)
	if err != nil {
		return false
	}
	y1, m1, d1 := parsed.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ISO formats a time as YYYY-MM-DD.
func ISO(t time.Time) string {
	return t.Format(isoLayout)
}
