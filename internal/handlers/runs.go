package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zilazol/price-crawler/internal/storage"
	"github.com/zilazol/price-crawler/internal/types"
)

// ListRuns returns run IDs with manifests in blob storage, newest first.
// GET /internal/runs?limit=20
func ListRuns(c *gin.Context) {
	if deps.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage not configured"})
		return
	}

	keys, err := deps.Store.List(c.Request.Context(), "runs/")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	runIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		// runs/<runID>/manifest.json
		trimmed := strings.TrimPrefix(key, "runs/")
		runID, _, found := strings.Cut(trimmed, "/")
		if found && runID != "" {
			runIDs = append(runIDs, runID)
		}
	}
	// Run IDs start with a UTC timestamp, so the lexical order is the time
	// order.
	sort.Sort(sort.Reverse(sort.StringSlice(runIDs)))

	limit := 20
	if len(runIDs) > limit {
		runIDs = runIDs[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"runs": runIDs, "total": len(runIDs)})
}

// GetRun returns one run's manifest.
// GET /internal/runs/:runId
func GetRun(c *gin.Context) {
	if deps.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage not configured"})
		return
	}

	runID := c.Param("runId")
	data, err := deps.Store.Get(c.Request.Context(), storage.BuildManifestKey(runID))
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	var manifest types.RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "manifest unreadable"})
		return
	}
	c.JSON(http.StatusOK, manifest)
}
