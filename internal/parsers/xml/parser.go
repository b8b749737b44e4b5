// Package xml parses price-transparency XML documents into normalized rows.
// Chains disagree on element names, nesting and encoding, so parsing probes
// ordered candidate lists instead of binding to a schema.
package xml

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/zilazol/price-crawler/internal/parsers/charset"
	"github.com/zilazol/price-crawler/internal/types"
)

// storeIDPattern matches the conventional transparency filename layout
// "<type><chain>-<store>-<timestamp>"; the middle group is the store code.
var storeIDPattern = regexp.MustCompile(`(\d+)-(\d+)-\d+`)

// ExtractStoreID pulls the branch code out of a price filename, e.g. "004"
// from "PriceFull7290027600007-004-202608260800.gz".
func ExtractStoreID(filename string) (string, bool) {
	match := storeIDPattern.FindStringSubmatch(filename)
	if match == nil {
		return "", false
	}
	return match[2], true
}

// IsStoreFile reports whether a filename names a branch listing rather than
// a price file. "StoresPrice..." style names count as price files.
func IsStoreFile(filename string) bool {
	return strings.Contains(filename, "Store") && !strings.Contains(filename, "Price")
}

// Parse dispatches a decoded XML document by filename convention.
func Parse(xmlBytes []byte, filename string) (*types.ParsedFile, error) {
	if IsStoreFile(filename) {
		stores, err := ParseStores(xmlBytes)
		if err != nil {
			return nil, err
		}
		return &types.ParsedFile{IsStoreFile: true, Stores: stores}, nil
	}

	storeID, _ := ExtractStoreID(filename)
	prices, meta, err := ParsePrices(xmlBytes, storeID)
	if err != nil {
		return nil, err
	}
	return &types.ParsedFile{Prices: prices, Store: meta}, nil
}

// ParseStores extracts branch rows from a Stores file. Elements without a
// store id are skipped.
func ParseStores(xmlBytes []byte) ([]types.StoreRow, error) {
	root, err := load(xmlBytes)
	if err != nil {
		return nil, err
	}

	var rows []types.StoreRow
	for _, store := range findAll(root, "Store") {
		extID := firstText(store, storeIDCandidates...)
		if extID == "" {
			continue
		}
		rows = append(rows, types.StoreRow{
			ExternalID: extID,
			Name:       firstText(store, storeNameCandidates...),
			City:       firstText(store, cityCandidates...),
			Address:    firstText(store, addressCandidates...),
		})
	}
	return rows, nil
}

// ParsePrices extracts price rows and the file's embedded store metadata.
// storeID is the branch code recovered from the filename and is used when
// the document itself carries none. Promotion blocks come out first, then
// regular items; an item listing both a regular and a promotional figure is
// on sale only when the promotional figure is strictly lower.
func ParsePrices(xmlBytes []byte, storeID string) ([]types.PriceRow, *types.StoreMetadata, error) {
	root, err := load(xmlBytes)
	if err != nil {
		return nil, nil, err
	}

	meta := extractStoreMetadata(root, storeID)
	effectiveStore := meta.ExternalID
	if effectiveStore == "" {
		effectiveStore = storeID
	}

	var rows []types.PriceRow
	rows = append(rows, promotionRows(root, effectiveStore)...)

	items := findAll(root, "Item")
	if len(items) == 0 {
		items = root.ChildElements()
	}

	for _, it := range items {
		barcode := firstText(it, barcodeCandidates...)
		if barcode == "" {
			continue
		}

		price, onSale, ok := decidePrice(
			firstText(it, regularPriceCandidates...),
			firstText(it, promoPriceCandidates...),
		)
		if !ok {
			continue
		}

		row := types.PriceRow{
			Barcode:    barcode,
			Name:       optional(firstText(it, itemNameCandidates...)),
			Brand:      optional(firstText(it, brandCandidates...)),
			Price:      price,
			IsOnSale:   onSale,
			Unit:       optional(firstText(it, unitCandidates...)),
			IsWeighted: isWeighted(firstText(it, weightedCandidates...)),
			ImageURL:   optional(firstText(it, imageCandidates...)),
			Date:       optional(firstText(it, priceDateCandidates...)),
			StoreID:    optional(effectiveStore),
		}
		if qty := firstText(it, quantityCandidates...); qty != "" {
			if f, err := strconv.ParseFloat(qty, 64); err == nil {
				row.Quantity = &f
			}
		}
		rows = append(rows, row)
	}

	return rows, meta, nil
}

// decidePrice applies the promo-vs-regular rules. The promotional figure
// wins only when both parse and it is strictly below the regular one; a
// lone promotional figure is taken at face value and flagged.
func decidePrice(regularStr, promoStr string) (price float64, onSale, ok bool) {
	regular, regErr := parsePrice(regularStr)
	promo, promoErr := parsePrice(promoStr)

	switch {
	case regErr == nil && promoErr == nil:
		if promo < regular {
			return promo, true, true
		}
		return regular, false, true
	case promoErr == nil:
		return promo, true, true
	case regErr == nil:
		return regular, false, true
	}
	return 0, false, false
}

func promotionRows(root *etree.Element, storeID string) []types.PriceRow {
	var rows []types.PriceRow
	for _, promo := range findAll(root, "Promotion") {
		priceStr := firstText(promo, promoBlockPriceCandidates...)
		if priceStr == "" {
			continue
		}
		price, err := parsePrice(priceStr)
		if err != nil {
			continue
		}
		date := firstText(promo, promoDateCandidates...)

		for _, item := range findAll(promo, "Item") {
			barcode := firstText(item, barcodeCandidates...)
			if barcode == "" {
				continue
			}
			rows = append(rows, types.PriceRow{
				Barcode:  barcode,
				Price:    price,
				IsOnSale: true,
				ImageURL: optional(firstText(item, imageCandidates...)),
				Date:     optional(date),
				StoreID:  optional(storeID),
			})
		}
	}
	return rows
}

func extractStoreMetadata(root *etree.Element, storeID string) *types.StoreMetadata {
	meta := &types.StoreMetadata{
		ExternalID: firstText(root, storeIDCandidates...),
		Name:       firstText(root, storeNameCandidates...),
		City:       firstText(root, cityCandidates...),
		Address:    firstText(root, addressCandidates...),
	}
	if meta.ExternalID == "" {
		meta.ExternalID = storeID
	}

	// A nested Store element is more authoritative than loose root tags.
	if stores := findAll(root, "Store"); len(stores) > 0 {
		store := stores[0]
		if v := firstText(store, storeIDCandidates...); v != "" {
			meta.ExternalID = v
		}
		if v := firstText(store, storeNameCandidates...); v != "" {
			meta.Name = v
		}
		if v := firstText(store, cityCandidates...); v != "" {
			meta.City = v
		}
		if v := firstText(store, addressCandidates...); v != "" {
			meta.Address = v
		}
	}
	return meta
}

func load(xmlBytes []byte) (*etree.Element, error) {
	decoded, err := charset.DecodeDetected(xmlBytes)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(decoded); err != nil {
		return nil, fmt.Errorf("read xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("read xml: no root element")
	}
	return root, nil
}

// firstText returns the raw trimmed text of the first direct child matching
// any candidate name, probing candidates in order.
func firstText(el *etree.Element, candidates ...string) string {
	for _, name := range candidates {
		if child := el.SelectElement(name); child != nil {
			if text := strings.TrimSpace(child.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// findAll collects every descendant element with the given tag.
func findAll(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
		out = append(out, findAll(child, tag)...)
	}
	return out
}

func parsePrice(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func isWeighted(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "y":
		return true
	}
	return false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
