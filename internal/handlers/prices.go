package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zilazol/price-crawler/internal/database"
)

// SnapshotRow is one observed price as the API exposes it.
type SnapshotRow struct {
	Barcode     string   `json:"barcode"`
	ProductName string   `json:"productName"`
	Brand       *string  `json:"brand"`
	Price       float64  `json:"price"`
	IsOnSale    bool     `json:"isOnSale"`
	StoreExtID  *string  `json:"storeExternalId"`
	Timestamp   string   `json:"timestamp"`
	SeenAt      string   `json:"seenAt"`
}

// GetLatestPrices returns the newest snapshot per product for a retailer,
// optionally scoped to one store.
// GET /internal/prices/:slug?store=001&limit=100&offset=0
func GetLatestPrices(c *gin.Context) {
	pool := database.Pool()
	if pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}

	slug := c.Param("slug")
	storeExt := c.Query("store")
	limit := parseBounded(c.Query("limit"), 100, 500)
	offset := parseBounded(c.Query("offset"), 0, 1<<30)

	query := `
		SELECT DISTINCT ON (p.barcode)
			p.barcode,
			p.name,
			p.brand,
			ps.price,
			ps."isOnSale",
			s."externalId",
			TO_CHAR(ps.timestamp, 'YYYY-MM-DD HH24:MI:SS'),
			TO_CHAR(ps."seenAt", 'YYYY-MM-DD HH24:MI:SS')
		FROM price_snapshots ps
		JOIN products p ON p.id = ps."productId"
		JOIN retailers r ON r.id = ps."retailerId"
		LEFT JOIN stores s ON s.id = ps."storeId"
		WHERE r.slug = $1
		  AND ($2 = '' OR s."externalId" = $2)
		ORDER BY p.barcode, ps."seenAt" DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := pool.Query(c.Request.Context(), query, slug, storeExt, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query prices"})
		return
	}
	defer rows.Close()

	prices := make([]SnapshotRow, 0, limit)
	for rows.Next() {
		var row SnapshotRow
		if err := rows.Scan(&row.Barcode, &row.ProductName, &row.Brand, &row.Price,
			&row.IsOnSale, &row.StoreExtID, &row.Timestamp, &row.SeenAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read prices"})
			return
		}
		prices = append(prices, row)
	}
	if rows.Err() != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read prices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"retailer": slug, "prices": prices, "count": len(prices)})
}

func parseBounded(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
