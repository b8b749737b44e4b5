// Package retailers loads the crawl catalog: which chains exist, where
// their price portals live, and which auth profile unlocks them.
package retailers

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zilazol/price-crawler/internal/types"
)

// AuthProfile groups portal credentials by login mechanism. Only the
// "publishedprices" type exists today; the tenant key is the retailer slug.
type AuthProfile struct {
	Type    string                       `json:"type" yaml:"type"`
	Tenants map[string]types.Credentials `json:"tenants,omitempty" yaml:"tenants,omitempty"`
}

// Catalog is the parsed retailers.yaml document.
type Catalog struct {
	AuthProfiles map[string]AuthProfile `json:"authProfiles,omitempty" yaml:"authProfiles,omitempty"`
	Retailers    []types.Retailer       `json:"retailers" yaml:"retailers"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog bytes and validates them.
func Parse(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := catalog.validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]struct{}, len(c.Retailers))
	for i, r := range c.Retailers {
		if r.Slug == "" {
			return fmt.Errorf("retailer %d: missing slug", i)
		}
		if _, dup := seen[r.Slug]; dup {
			return fmt.Errorf("retailer %s: duplicate slug", r.Slug)
		}
		seen[r.Slug] = struct{}{}
		if len(r.Sources) == 0 {
			return fmt.Errorf("retailer %s: no sources", r.Slug)
		}
		for _, s := range r.Sources {
			if s.URL == "" {
				return fmt.Errorf("retailer %s: source with empty url", r.Slug)
			}
		}
	}
	return nil
}

// BySlug finds a retailer by its exact slug.
func (c *Catalog) BySlug(slug string) (types.Retailer, bool) {
	for _, r := range c.Retailers {
		if r.Slug == slug {
			return r, true
		}
	}
	return types.Retailer{}, false
}

// Active returns enabled retailers with sources ordered by priority.
func (c *Catalog) Active() []types.Retailer {
	var out []types.Retailer
	for _, r := range c.Retailers {
		if !r.Enabled() {
			continue
		}
		out = append(out, sortedSources(r))
	}
	return out
}

// Filter selects active retailers by credential class: "auth" keeps only
// chains needing a login, "public" only those without, anything else keeps
// all.
func (c *Catalog) Filter(class string) []types.Retailer {
	active := c.Active()
	switch strings.ToLower(class) {
	case "auth":
		return keep(active, func(r types.Retailer) bool { return r.NeedCreds })
	case "public":
		return keep(active, func(r types.Retailer) bool { return !r.NeedCreds })
	}
	return active
}

// PublishedPricesTenants flattens every publishedprices auth profile into a
// single tenant map.
func (c *Catalog) PublishedPricesTenants() map[string]types.Credentials {
	tenants := make(map[string]types.Credentials)
	for _, profile := range c.AuthProfiles {
		if profile.Type != "publishedprices" {
			continue
		}
		for slug, creds := range profile.Tenants {
			tenants[slug] = creds
		}
	}
	return tenants
}

func sortedSources(r types.Retailer) types.Retailer {
	sources := make([]types.Source, len(r.Sources))
	copy(sources, r.Sources)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority > sources[j].Priority
	})
	r.Sources = sources
	return r
}

func keep(rs []types.Retailer, pred func(types.Retailer) bool) []types.Retailer {
	var out []types.Retailer
	for _, r := range rs {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
