// Package handlers implements the internal HTTP surface: health, catalog
// listing, run manifests, latest prices and the admin crawl trigger.
package handlers

import (
	"context"

	"github.com/zilazol/price-crawler/internal/retailers"
	"github.com/zilazol/price-crawler/internal/storage"
	"github.com/zilazol/price-crawler/internal/types"
)

// RunStarter kicks off a crawl over the given retailers. The server wires
// the crawl controller in; tests substitute a recorder.
type RunStarter func(ctx context.Context, list []types.Retailer, trigger string) (*types.RunManifest, error)

// Deps are the shared collaborators the handlers read from.
type Deps struct {
	Catalog  *retailers.Catalog
	Store    storage.Storage
	StartRun RunStarter
}

var deps Deps

// Configure installs handler dependencies. Call once at startup before
// routes are served.
func Configure(d Deps) {
	deps = d
}
