package adapters

import (
	"net/url"
	"strings"

	"github.com/zilazol/price-crawler/internal/types"
)

// Select picks the adapter for a source. An explicit catalog tag always
// wins; otherwise the host decides. Unknown hosts fall back to the flat-link
// crawl, which works on anything serving plain anchors.
func Select(src types.Source) types.AdapterName {
	if src.Adapter != "" {
		return src.Adapter
	}
	if parsed, err := url.Parse(src.URL); err == nil {
		host := strings.ToLower(parsed.Hostname())
		switch {
		case strings.Contains(host, "publishedprices"):
			return types.AdapterPublishedPrices
		case strings.Contains(host, "binaprojects"):
			return types.AdapterBina
		}
	}
	return types.AdapterGeneric
}

// For returns the adapter implementation behind a name.
func For(name types.AdapterName) Adapter {
	switch name {
	case types.AdapterPublishedPrices:
		return &PublishedPrices{}
	case types.AdapterBina:
		return &Bina{}
	case types.AdapterWoltDateIndex:
		return &WoltDateIndex{}
	default:
		return &Generic{}
	}
}
