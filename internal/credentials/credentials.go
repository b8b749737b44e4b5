// Package credentials resolves file-manager portal logins per retailer.
// Tenants come from the catalog's auth profiles, overridable through the
// RETAILER_CREDS_JSON environment variable for deployments that keep
// secrets out of the catalog file.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zilazol/price-crawler/internal/types"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Str("component", "credentials").Logger()

// EnvVar names the JSON override: {"slug": {"username": "...", "password": "..."}}.
const EnvVar = "RETAILER_CREDS_JSON"

// Store holds the merged tenant credential map.
type Store struct {
	tenants map[string]types.Credentials
}

// New merges catalog tenants with the environment override; the override
// wins per slug. An unset or empty override is fine, malformed JSON is not.
func New(fromCatalog map[string]types.Credentials) (*Store, error) {
	merged := make(map[string]types.Credentials, len(fromCatalog))
	for slug, creds := range fromCatalog {
		merged[slug] = creds
	}

	if raw := os.Getenv(EnvVar); raw != "" {
		var env map[string]types.Credentials
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvVar, err)
		}
		for slug, creds := range env {
			merged[slug] = creds
		}
	}

	return &Store{tenants: merged}, nil
}

// NewStatic builds a store from a fixed map, for tests and tooling.
func NewStatic(tenants map[string]types.Credentials) *Store {
	merged := make(map[string]types.Credentials, len(tenants))
	for slug, creds := range tenants {
		merged[slug] = creds
	}
	return &Store{tenants: merged}
}

// Lookup finds credentials for a slug, falling back to a case-insensitive
// scan when the exact key is absent. Catalogs and env overrides disagree on
// casing often enough that a hard miss here would silently skip retailers.
func (s *Store) Lookup(slug string) (types.Credentials, bool) {
	if creds, ok := s.tenants[slug]; ok {
		return creds, true
	}
	for key, creds := range s.tenants {
		if strings.EqualFold(key, slug) {
			log.Info().Str("retailer", slug).Str("matched", key).Msg("credentials matched case-insensitively")
			return creds, true
		}
	}
	return types.Credentials{}, false
}

// Len returns the number of known tenants.
func (s *Store) Len() int {
	return len(s.tenants)
}
