package types

import "time"

// AdapterName identifies which crawl protocol a source speaks.
type AdapterName string

const (
	AdapterPublishedPrices AdapterName = "publishedprices"
	AdapterBina            AdapterName = "bina"
	AdapterGeneric         AdapterName = "generic"
	AdapterWoltDateIndex   AdapterName = "wolt_dateindex"
)

// ArchiveKind is the detected container format of a downloaded blob.
type ArchiveKind string

const (
	ArchiveGzip ArchiveKind = "gz"
	ArchiveZip  ArchiveKind = "zip"
	ArchiveRaw  ArchiveKind = "raw"
)

// Source is one candidate URL for a retailer, tried in priority order.
type Source struct {
	URL              string      `json:"url" yaml:"url"`
	Adapter          AdapterName `json:"adapter,omitempty" yaml:"adapter,omitempty"`
	Priority         int         `json:"priority" yaml:"priority"`
	CredsKey         string      `json:"credsKey,omitempty" yaml:"credsKey,omitempty"`
	DownloadPatterns []string    `json:"downloadPatterns,omitempty" yaml:"downloadPatterns,omitempty"`
	FilterToday      *bool       `json:"filterToday,omitempty" yaml:"filterToday,omitempty"`
}

// TodayOnly reports whether the source restricts links to today's files.
// Unset means yes; portals republish months of history and yesterday's
// files were already ingested by yesterday's run.
func (s Source) TodayOnly() bool {
	return s.FilterToday == nil || *s.FilterToday
}

// Retailer is a catalog entry describing one chain to crawl.
type Retailer struct {
	Slug             string   `json:"slug" yaml:"slug"`
	Name             string   `json:"name" yaml:"name"`
	Sources          []Source `json:"sources" yaml:"sources"`
	NeedCreds        bool     `json:"needCreds" yaml:"needCreds"`
	AuthProfile      string   `json:"authProfile,omitempty" yaml:"authProfile,omitempty"`
	TenantKey        string   `json:"tenantKey,omitempty" yaml:"tenantKey,omitempty"`
	Folder           string   `json:"folder,omitempty" yaml:"folder,omitempty"`
	DownloadPatterns []string `json:"downloadPatterns,omitempty" yaml:"downloadPatterns,omitempty"`
	IsActive         *bool    `json:"isActive,omitempty" yaml:"isActive,omitempty"`
}

// Enabled reports whether the retailer should be crawled. A catalog entry
// that never mentions the flag is enabled; only an explicit false parks it.
func (r Retailer) Enabled() bool {
	return r.IsActive == nil || *r.IsActive
}

// CredentialKey resolves which credential-store entry unlocks this
// retailer's portal: an explicit per-source key wins, then the retailer's
// tenant key, then its slug.
func (r Retailer) CredentialKey(src Source) string {
	if src.CredsKey != "" {
		return src.CredsKey
	}
	if r.TenantKey != "" {
		return r.TenantKey
	}
	return r.Slug
}

// Credentials is a file-manager portal login pair.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StoreMetadata is branch information probed from the root of a price file,
// used to auto-register stores before snapshots reference them.
type StoreMetadata struct {
	ExternalID string `json:"externalId"`
	Name       string `json:"name,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
}

// StoreRow is one branch parsed from a Stores file.
type StoreRow struct {
	ExternalID string `json:"externalId"`
	Name       string `json:"name,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
}

// PriceRow is one normalized product observation parsed from a price file.
// Price carries the effective value after the promo comparison; IsOnSale
// records whether the promotional figure won.
type PriceRow struct {
	Barcode    string   `json:"barcode"`
	Name       *string  `json:"name,omitempty"`
	Brand      *string  `json:"brand,omitempty"`
	Price      float64  `json:"price"`
	IsOnSale   bool     `json:"isOnSale"`
	Quantity   *float64 `json:"quantity,omitempty"`
	Unit       *string  `json:"unit,omitempty"`
	IsWeighted bool     `json:"isWeighted"`
	ImageURL   *string  `json:"imageUrl,omitempty"`
	Date       *string  `json:"date,omitempty"`
	StoreID    *string  `json:"storeId,omitempty"`
}

// ParsedFile is the outcome of parsing a single XML document.
type ParsedFile struct {
	IsStoreFile bool           `json:"isStoreFile"`
	Prices      []PriceRow     `json:"prices,omitempty"`
	Stores      []StoreRow     `json:"stores,omitempty"`
	Store       *StoreMetadata `json:"store,omitempty"`
}

// RetailerResult accumulates per-(retailer, source) crawl statistics. One is
// produced per attempted source and serialized into the run manifest.
type RetailerResult struct {
	RetailerID      string    `json:"retailer_id"`
	SourceURL       string    `json:"source_url"`
	Adapter         string    `json:"adapter"`
	LinksFound      int       `json:"links_found"`
	FilesDownloaded int       `json:"files_downloaded"`
	SkippedDupes    int       `json:"skipped_dupes"`
	XML             int       `json:"xml"`
	Gz              int       `json:"gz"`
	Zips            int       `json:"zips"`
	Subpath         *string   `json:"subpath,omitempty"`
	Errors          []string  `json:"errors,omitempty"`
	Reasons         []string  `json:"reasons,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// AddError records a failure without aborting the source.
func (r *RetailerResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddReason records a diagnostic note, e.g. why no links were collected.
func (r *RetailerResult) AddReason(msg string) {
	r.Reasons = append(r.Reasons, msg)
}

// RunManifest is the JSON summary uploaded at the end of a crawl run.
type RunManifest struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Retailers  int               `json:"retailers"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	TimedOut   bool              `json:"timed_out"`
	Results    []*RetailerResult `json:"results"`
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to the given float64
func Float64Ptr(f float64) *float64 {
	return &f
}

// BoolPtr returns a pointer to the given bool
func BoolPtr(b bool) *bool {
	return &b
}

// TimePtr returns a pointer to the given time
func TimePtr(t time.Time) *time.Time {
	return &t
}
