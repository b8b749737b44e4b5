package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/zilazol/price-crawler/internal/types"
)

// TriggerCrawl starts a crawl in the background: one retailer by slug, or a
// class of active retailers with "all", "public-only" or
// "credentialed-only". Responds 202 immediately;
// progress lands in the run manifest.
// POST /internal/admin/crawl/:selector
func TriggerCrawl(c *gin.Context) {
	if deps.Catalog == nil || deps.StartRun == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "crawler not configured"})
		return
	}

	selector := c.Param("selector")
	var list []types.Retailer
	switch selector {
	case "all":
		list = deps.Catalog.Active()
	case "public-only":
		list = deps.Catalog.Filter("public")
	case "credentialed-only":
		list = deps.Catalog.Filter("auth")
	default:
		retailer, ok := deps.Catalog.BySlug(selector)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "retailer not found"})
			return
		}
		if !retailer.Enabled() {
			c.JSON(http.StatusConflict, gin.H{"error": "retailer is disabled"})
			return
		}
		list = []types.Retailer{retailer}
	}

	// Detach from the request; the run outlives the HTTP exchange.
	go func() {
		if _, err := deps.StartRun(context.Background(), list, "admin"); err != nil {
			log.Error().Str("selector", selector).Err(err).Msg("admin crawl failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status":    "started",
		"retailers": len(list),
	})
}
