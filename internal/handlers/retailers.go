package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zilazol/price-crawler/internal/types"
)

// RetailerSummary is one catalog entry as the API exposes it.
type RetailerSummary struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	IsActive  bool   `json:"isActive"`
	NeedCreds bool   `json:"needCreds"`
	Sources   int    `json:"sources"`
	Folder    string `json:"folder,omitempty"`
}

// ListRetailers returns the crawl catalog.
// GET /internal/retailers
func ListRetailers(c *gin.Context) {
	if deps.Catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not loaded"})
		return
	}

	summaries := make([]RetailerSummary, 0, len(deps.Catalog.Retailers))
	for _, r := range deps.Catalog.Retailers {
		summaries = append(summaries, summarize(r))
	}
	c.JSON(http.StatusOK, gin.H{"retailers": summaries, "total": len(summaries)})
}

// GetRetailer returns one catalog entry with its sources.
// GET /internal/retailers/:slug
func GetRetailer(c *gin.Context) {
	if deps.Catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not loaded"})
		return
	}

	retailer, ok := deps.Catalog.BySlug(c.Param("slug"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "retailer not found"})
		return
	}
	c.JSON(http.StatusOK, retailer)
}

func summarize(r types.Retailer) RetailerSummary {
	return RetailerSummary{
		Slug:      r.Slug,
		Name:      r.Name,
		IsActive:  r.Enabled(),
		NeedCreds: r.NeedCreds,
		Sources:   len(r.Sources),
		Folder:    r.Folder,
	}
}
