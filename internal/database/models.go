package database

import "time"

// Retailer is a row in the retailers table.
type Retailer struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	NeedCreds bool      `json:"needCreds"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is a row in the stores table; externalId is the chain's own branch
// code, unique per retailer.
type Store struct {
	ID         int64     `json:"id"`
	RetailerID int64     `json:"retailerId"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	City       *string   `json:"city,omitempty"`
	Address    *string   `json:"address,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Product is a row in the products table, keyed by barcode across all
// retailers.
type Product struct {
	ID         int64     `json:"id"`
	Barcode    string    `json:"barcode"`
	Name       string    `json:"name"`
	Brand      *string   `json:"brand,omitempty"`
	Quantity   *float64  `json:"quantity,omitempty"`
	Unit       *string   `json:"unit,omitempty"`
	IsWeighted bool      `json:"isWeighted"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PriceSnapshot is an append-only observation in the price_snapshots table.
type PriceSnapshot struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"productId"`
	RetailerID int64     `json:"retailerId"`
	StoreID    *int64    `json:"storeId,omitempty"`
	Price      float64   `json:"price"`
	IsOnSale   bool      `json:"isOnSale"`
	Timestamp  time.Time `json:"timestamp"`
	SeenAt     time.Time `json:"seenAt"`
}

// StoreWithRetailer joins a store to its owning retailer for API listings.
type StoreWithRetailer struct {
	Store
	RetailerName string `json:"retailerName"`
	RetailerSlug string `json:"retailerSlug"`
}
