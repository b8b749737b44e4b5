package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilazol/price-crawler/internal/types"
)

type memStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	failFor int
	puts    int
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (m *memStorage) Put(_ context.Context, key string, content []byte, _ *Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.puts <= m.failFor {
		return errors.New("transient storage error")
	}
	m.files[key] = content
	return nil
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return content, nil
}

func (m *memStorage) GetInfo(context.Context, string) (*FileInfo, error) { return nil, nil }
func (m *memStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[key]
	return ok, nil
}
func (m *memStorage) Delete(context.Context, string) error          { return nil }
func (m *memStorage) List(context.Context, string) ([]string, error) { return nil, nil }
func (m *memStorage) GetChecksum(context.Context, string) (string, error) {
	return "", nil
}

func TestUploadManifest(t *testing.T) {
	store := newMemStorage()
	manifest := &types.RunManifest{
		RunID:     "20260826T120000Z-abcd1234",
		StartedAt: time.Now().UTC(),
		Retailers: 2,
		Succeeded: 2,
	}

	require.NoError(t, UploadManifest(context.Background(), store, manifest))

	raw, err := store.Get(context.Background(), BuildManifestKey(manifest.RunID))
	require.NoError(t, err)

	var decoded types.RunManifest
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, manifest.RunID, decoded.RunID)
	assert.Equal(t, 2, decoded.Retailers)
}

func TestUploadManifestGivesUpAfterRetries(t *testing.T) {
	old := manifestBackoff
	manifestBackoff = time.Millisecond
	t.Cleanup(func() { manifestBackoff = old })

	store := newMemStorage()
	store.failFor = 10

	err := UploadManifest(context.Background(), store, &types.RunManifest{RunID: "r"})
	assert.Error(t, err)
	assert.Equal(t, 3, store.puts)
}

func TestBuildKeys(t *testing.T) {
	assert.Equal(t, "raw/shufersal/PriceFull.gz", BuildRawKey("shufersal", "PriceFull.gz"))
	assert.Equal(t, "runs/abc/manifest.json", BuildManifestKey("abc"))
	assert.Equal(t, "screenshots/victory/no_links.png", BuildScreenshotKey("victory", "no_links.png"))
}
