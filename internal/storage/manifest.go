package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/zilazol/price-crawler/internal/types"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Str("component", "storage").Logger()

const manifestAttempts = 3

// manifestBackoff is the initial retry delay; it doubles per attempt.
var manifestBackoff = 2 * time.Second

// UploadManifest serializes a run manifest and writes it to storage,
// retrying transient failures with doubling backoff. Manifests are the only
// record of a run once the process exits, so the upload gets more patience
// than normal writes.
func UploadManifest(ctx context.Context, store Storage, manifest *types.RunManifest) error {
	payload, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	key := BuildManifestKey(manifest.RunID)
	meta := &Metadata{
		ContentType: "application/json",
		RunID:       manifest.RunID,
	}

	var lastErr error
	backoff := manifestBackoff
	for attempt := 1; attempt <= manifestAttempts; attempt++ {
		if lastErr = store.Put(ctx, key, payload, meta); lastErr == nil {
			log.Info().Str("run_id", manifest.RunID).Str("key", key).Msg("manifest uploaded")
			return nil
		}

		log.Warn().Str("run_id", manifest.RunID).Int("attempt", attempt).Err(lastErr).Msg("manifest upload failed")
		if attempt == manifestAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("upload manifest after %d attempts: %w", manifestAttempts, lastErr)
}
