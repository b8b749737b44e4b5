// Package jobs holds retention cleanups run on a schedule: old raw archives
// and diagnostic screenshots are pruned from blob storage, stale price
// snapshots from the database. Snapshots are append-only, so without these
// the disk only ever grows.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zilazol/price-crawler/internal/database"
	"github.com/zilazol/price-crawler/internal/storage"
)

// CleanupOldSnapshots removes price snapshots seen before the cutoff age.
// Returns the number of rows deleted.
func CleanupOldSnapshots(ctx context.Context, age time.Duration) (int, error) {
	pool := database.Pool()
	if pool == nil {
		return 0, &database.NotConnectedError{}
	}

	cutoff := time.Now().Add(-age)
	result, err := pool.Exec(ctx, `
		DELETE FROM price_snapshots
		WHERE "seenAt" < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old snapshots: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// CleanupStorage removes raw archives and screenshots older than the cutoff
// age. Run manifests are kept; they are the crawl history the API serves.
// Returns the number of blobs deleted.
func CleanupStorage(ctx context.Context, store storage.Storage, age time.Duration, logger *zerolog.Logger) (int, error) {
	cutoff := time.Now().Add(-age)
	deleted := 0

	for _, prefix := range []string{"raw/", "screenshots/"} {
		keys, err := store.List(ctx, prefix)
		if err != nil {
			return deleted, fmt.Errorf("failed to list %s: %w", prefix, err)
		}

		for _, key := range keys {
			info, err := store.GetInfo(ctx, key)
			if err != nil {
				logger.Warn().Str("key", key).Err(err).Msg("Failed to stat blob")
				continue
			}
			if info == nil || !info.ModifiedAt.Before(cutoff) {
				continue
			}
			if err := store.Delete(ctx, key); err != nil {
				logger.Warn().Str("key", key).Err(err).Msg("Failed to delete blob")
				continue
			}
			deleted++
		}
	}

	return deleted, nil
}

// RetentionTask bundles both cleanups into one schedulable task.
func RetentionTask(store storage.Storage, snapshotAge, blobAge time.Duration, logger *zerolog.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		rows, err := CleanupOldSnapshots(ctx, snapshotAge)
		if err != nil {
			return err
		}

		blobs, err := CleanupStorage(ctx, store, blobAge, logger)
		if err != nil {
			return err
		}

		if rows > 0 || blobs > 0 {
			logger.Info().
				Int("snapshots", rows).
				Int("blobs", blobs).
				Msg("Retention cleanup finished")
		}
		return nil
	}
}
