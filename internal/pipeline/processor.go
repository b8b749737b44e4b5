// Package pipeline turns downloaded blobs into database rows. Adapters feed
// it whatever a portal produced; it dedupes, archives, unpacks, parses and
// persists, and keeps the per-source counters honest.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/zilazol/price-crawler/internal/archive"
	"github.com/zilazol/price-crawler/internal/database"
	"github.com/zilazol/price-crawler/internal/dedup"
	pricexml "github.com/zilazol/price-crawler/internal/parsers/xml"
	"github.com/zilazol/price-crawler/internal/storage"
	"github.com/zilazol/price-crawler/internal/types"
)

// Processor ingests downloaded files for one retailer within one run.
type Processor struct {
	retailerSlug string
	retailerName string
	runID        string
	dedup        *dedup.Set
	gateway      database.Gateway
	store        storage.Storage
	log          zerolog.Logger
}

// New builds a processor. store may be nil to skip raw archival; gateway
// may be nil for dry runs that only exercise discovery and parsing.
func New(retailerSlug, retailerName, runID string, dd *dedup.Set, gateway database.Gateway, store storage.Storage) *Processor {
	return &Processor{
		retailerSlug: retailerSlug,
		retailerName: retailerName,
		runID:        runID,
		dedup:        dd,
		gateway:      gateway,
		store:        store,
		log: zerolog.New(os.Stdout).With().Timestamp().
			Str("component", "pipeline").
			Str("retailer", retailerSlug).
			Str("run_id", runID).
			Logger(),
	}
}

// RetailerSlug returns the retailer this processor writes for.
func (p *Processor) RetailerSlug() string {
	return p.retailerSlug
}

// Process ingests one downloaded blob and updates the source's counters.
// Duplicates bump SkippedDupes and stop there; everything else is archived,
// unpacked and persisted. Parse failures of individual documents are logged
// and skipped, a failed unpack is returned as an error.
func (p *Processor) Process(ctx context.Context, data []byte, filename string, result *types.RetailerResult) error {
	if p.dedup != nil && p.dedup.SeenAndRecord(p.retailerSlug, filename, data) {
		result.SkippedDupes++
		p.log.Debug().Str("file", filename).Msg("skip duplicate")
		return nil
	}

	kind := archive.Sniff(data)
	p.log.Info().
		Str("file", filename).
		Str("kind", string(kind)).
		Int("bytes", len(data)).
		Msg("file.downloaded")

	if p.store != nil {
		key := storage.BuildRawKey(p.retailerSlug, filename)
		meta := &storage.Metadata{
			OriginalName: filename,
			RetailerSlug: p.retailerSlug,
			RunID:        p.runID,
			DownloadedAt: time.Now().UTC(),
		}
		if err := p.store.Put(ctx, key, data, meta); err != nil {
			p.log.Warn().Str("file", filename).Err(err).Msg("raw archive failed")
		}
	}

	entries, err := archive.ExtractXML(data, filename)
	if err != nil {
		return err
	}

	snapshots := 0
	for _, entry := range entries {
		parsed, err := pricexml.Parse(entry.Content, filename)
		if err != nil {
			p.log.Warn().Str("file", filename).Str("entry", entry.Name).Err(err).Msg("parse failed")
			continue
		}
		snapshots += p.persist(ctx, parsed)
	}

	switch kind {
	case types.ArchiveZip:
		result.Zips++
	case types.ArchiveGzip:
		result.Gz++
	default:
		result.XML++
	}
	result.FilesDownloaded++

	p.log.Info().
		Str("file", filename).
		Int("entries", len(entries)).
		Int("snapshots", snapshots).
		Msg("file.processed")
	return nil
}

func (p *Processor) persist(ctx context.Context, parsed *types.ParsedFile) int {
	if p.gateway == nil {
		return 0
	}

	if parsed.IsStoreFile {
		if len(parsed.Stores) == 0 {
			return 0
		}
		count, err := p.gateway.SaveStores(ctx, p.retailerSlug, parsed.Stores)
		if err != nil {
			p.log.Error().Err(err).Msg("store save failed")
			return 0
		}
		return count
	}

	if len(parsed.Prices) == 0 {
		return 0
	}
	count, err := p.gateway.SavePrices(ctx, p.retailerSlug, p.retailerName, parsed.Prices, parsed.Store)
	if err != nil {
		p.log.Error().Err(err).Msg("price save failed")
		return 0
	}
	return count
}
