package database

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/zilazol/price-crawler/internal/types"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Str("component", "database").Logger()

// Gateway is the persistence surface the crawl pipeline writes through.
// The pgx implementation talks to Postgres; tests substitute an in-memory
// fake.
type Gateway interface {
	// SyncRetailers upserts catalog entries so foreign keys exist before a
	// run writes snapshots. needCreds is always taken from the catalog.
	SyncRetailers(ctx context.Context, retailers []types.Retailer) error

	// ActiveSlugs lists enabled retailers, optionally filtered by whether
	// they need credentials.
	ActiveSlugs(ctx context.Context, needCreds *bool) ([]string, error)

	// SaveStores upserts branch rows parsed from a Stores file.
	SaveStores(ctx context.Context, retailerSlug string, rows []types.StoreRow) (int, error)

	// SavePrices upserts products and appends one snapshot per row.
	// Returns how many snapshots were written.
	SavePrices(ctx context.Context, retailerSlug, retailerName string, rows []types.PriceRow, meta *types.StoreMetadata) (int, error)
}

// PG is the Postgres-backed Gateway using the shared pgx pool.
type PG struct{}

// NewPG returns a Gateway over the package connection pool. Connect must
// have been called first.
func NewPG() *PG {
	return &PG{}
}

func (g *PG) SyncRetailers(ctx context.Context, retailers []types.Retailer) error {
	for _, r := range retailers {
		needCreds := r.NeedCreds
		if _, err := g.upsertRetailer(ctx, r.Slug, r.Name, &needCreds); err != nil {
			return err
		}
	}
	return nil
}

func (g *PG) ActiveSlugs(ctx context.Context, needCreds *bool) ([]string, error) {
	p := Pool()
	if p == nil {
		return nil, errNotConnected
	}

	query := `SELECT slug FROM retailers WHERE "isActive" = true ORDER BY slug`
	args := []any{}
	if needCreds != nil {
		query = `SELECT slug FROM retailers WHERE "isActive" = true AND "needCreds" = $1 ORDER BY slug`
		args = append(args, *needCreds)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

func (g *PG) SaveStores(ctx context.Context, retailerSlug string, rows []types.StoreRow) (int, error) {
	retailerID, err := g.upsertRetailer(ctx, retailerSlug, retailerSlug, nil)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		if row.ExternalID == "" {
			continue
		}
		if _, err := g.upsertStore(ctx, retailerID, row.ExternalID, row.Name, row.City, row.Address); err != nil {
			log.Warn().Str("retailer", retailerSlug).Str("store", row.ExternalID).Err(err).Msg("store upsert failed")
			continue
		}
		count++
	}
	return count, nil
}

func (g *PG) SavePrices(ctx context.Context, retailerSlug, retailerName string, rows []types.PriceRow, meta *types.StoreMetadata) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	retailerID, err := g.upsertRetailer(ctx, retailerSlug, retailerName, nil)
	if err != nil {
		return 0, err
	}

	var metaName, metaCity, metaAddress, metaStoreID string
	if meta != nil {
		metaName, metaCity, metaAddress, metaStoreID = meta.Name, meta.City, meta.Address, meta.ExternalID
	}

	saved := 0
	storeCache := make(map[string]int64)

	for _, row := range rows {
		timestamp := snapshotTime(row.Date)

		var storeID *int64
		extStoreID := deref(row.StoreID)
		if extStoreID == "" {
			extStoreID = metaStoreID
		}
		if extStoreID != "" {
			if cached, ok := storeCache[extStoreID]; ok {
				storeID = &cached
			} else if id, err := g.upsertStore(ctx, retailerID, extStoreID, metaName, metaCity, metaAddress); err == nil {
				storeCache[extStoreID] = id
				storeID = &id
			}
		}

		productID, err := g.upsertProduct(ctx, row)
		if err != nil {
			log.Warn().Str("retailer", retailerSlug).Str("barcode", row.Barcode).Err(err).Msg("product upsert failed")
			continue
		}

		if err := g.insertSnapshot(ctx, productID, retailerID, storeID, row.Price, row.IsOnSale, timestamp); err != nil {
			log.Error().Str("retailer", retailerSlug).Str("barcode", row.Barcode).Err(err).Msg("snapshot insert failed")
			continue
		}
		saved++
	}

	log.Info().Str("retailer", retailerSlug).Int("count", saved).Int("rows", len(rows)).Msg("db.saved")
	return saved, nil
}

// upsertRetailer inserts or refreshes a retailer. A nil needCreds preserves
// whatever the row already has.
func (g *PG) upsertRetailer(ctx context.Context, slug, name string, needCreds *bool) (int64, error) {
	p := Pool()
	if p == nil {
		return 0, errNotConnected
	}

	var id int64
	if needCreds == nil {
		err := p.QueryRow(ctx, `
			INSERT INTO retailers (slug, name, "needCreds", "createdAt", "updatedAt")
			VALUES ($1, $2, false, NOW(), NOW())
			ON CONFLICT (slug) DO UPDATE SET
				name = EXCLUDED.name,
				"updatedAt" = NOW()
			RETURNING id
		`, slug, name).Scan(&id)
		return id, err
	}

	err := p.QueryRow(ctx, `
		INSERT INTO retailers (slug, name, "needCreds", "createdAt", "updatedAt")
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			"needCreds" = EXCLUDED."needCreds",
			"updatedAt" = NOW()
		RETURNING id
	`, slug, name, *needCreds).Scan(&id)
	return id, err
}

// upsertStore prefers incoming non-empty values but never clobbers existing
// data with blanks; a branch seen first in a bare price file still gains
// its address when the Stores file arrives later, and vice versa.
func (g *PG) upsertStore(ctx context.Context, retailerID int64, externalID, name, city, address string) (int64, error) {
	p := Pool()
	if p == nil {
		return 0, errNotConnected
	}

	displayName := name
	if displayName == "" {
		displayName = "Store " + externalID
	}

	var id int64
	err := p.QueryRow(ctx, `
		INSERT INTO stores ("retailerId", "externalId", name, city, address, "createdAt", "updatedAt")
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NOW(), NOW())
		ON CONFLICT ("retailerId", "externalId")
		DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), stores.name),
			city = COALESCE(NULLIF(EXCLUDED.city, ''), stores.city),
			address = COALESCE(NULLIF(EXCLUDED.address, ''), stores.address),
			"updatedAt" = NOW()
		RETURNING id
	`, retailerID, externalID, displayName, city, address).Scan(&id)
	return id, err
}

func (g *PG) upsertProduct(ctx context.Context, row types.PriceRow) (int64, error) {
	p := Pool()
	if p == nil {
		return 0, errNotConnected
	}

	name := deref(row.Name)
	if name == "" {
		name = "Unknown (" + row.Barcode + ")"
	}

	var id int64
	err := p.QueryRow(ctx, `
		INSERT INTO products (barcode, name, brand, quantity, unit, "isWeighted", "imageUrl", "createdAt", "updatedAt")
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, NULLIF($7, ''), NOW(), NOW())
		ON CONFLICT (barcode)
		DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), products.name),
			brand = COALESCE(NULLIF(EXCLUDED.brand, ''), products.brand),
			quantity = COALESCE(EXCLUDED.quantity, products.quantity),
			unit = COALESCE(NULLIF(EXCLUDED.unit, ''), products.unit),
			"isWeighted" = COALESCE(EXCLUDED."isWeighted", products."isWeighted"),
			"imageUrl" = COALESCE(NULLIF(EXCLUDED."imageUrl", ''), products."imageUrl"),
			"updatedAt" = NOW()
		RETURNING id
	`, row.Barcode, name, deref(row.Brand), row.Quantity, deref(row.Unit), row.IsWeighted, deref(row.ImageURL)).Scan(&id)
	return id, err
}

func (g *PG) insertSnapshot(ctx context.Context, productID, retailerID int64, storeID *int64, price float64, isOnSale bool, timestamp time.Time) error {
	p := Pool()
	if p == nil {
		return errNotConnected
	}

	_, err := p.Exec(ctx, `
		INSERT INTO price_snapshots
			("productId", "retailerId", "storeId", price, "isOnSale", timestamp, "seenAt")
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, productID, retailerID, storeID, price, isOnSale, timestamp)
	return err
}

// snapshotTime parses the row's update date, accepting the two datetime
// shapes chains emit. Anything else falls back to the current time.
func snapshotTime(date *string) time.Time {
	if date == nil {
		return time.Now().UTC()
	}
	s := *date
	if len(s) > 19 {
		s = s[:19]
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var errNotConnected = &NotConnectedError{}

// NotConnectedError reports a gateway call before Connect.
type NotConnectedError struct{}

func (*NotConnectedError) Error() string { return "database not initialized" }
