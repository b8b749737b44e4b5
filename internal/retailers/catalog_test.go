package retailers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
authProfiles:
  publishedprices:
    type: publishedprices
    tenants:
      tivtaam:
        username: TivTaam
        password: ""
      keshet:
        username: Keshet
        password: ""
retailers:
  - slug: shufersal
    name: שופרסל
    needCreds: false
    sources:
      - url: https://prices.shufersal.co.il/
        adapter: generic
        priority: 2
      - url: https://prices-mirror.shufersal.co.il/
        adapter: generic
        priority: 1
  - slug: tivtaam
    name: טיב טעם
    isActive: true
    needCreds: true
    authProfile: publishedprices
    sources:
      - url: https://url.publishedprices.co.il/login
        adapter: publishedprices
        priority: 1
  - slug: dormant
    name: Dormant
    isActive: false
    sources:
      - url: https://example.com/
        priority: 1
`

func TestParseCatalog(t *testing.T) {
	catalog, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	assert.Len(t, catalog.Retailers, 3)

	r, ok := catalog.BySlug("tivtaam")
	require.True(t, ok)
	assert.True(t, r.NeedCreds)
	assert.Equal(t, "publishedprices", r.AuthProfile)
}

func TestEnabledByDefault(t *testing.T) {
	catalog, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	// shufersal never mentions isActive; only an explicit false disables.
	r, ok := catalog.BySlug("shufersal")
	require.True(t, ok)
	require.Nil(t, r.IsActive)
	assert.True(t, r.Enabled())

	active := catalog.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "shufersal", active[0].Slug)
}

func TestActiveSortsSourcesByPriority(t *testing.T) {
	catalog, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	active := catalog.Active()
	require.Len(t, active, 2)
	require.Equal(t, "shufersal", active[0].Slug)
	assert.Equal(t, "https://prices.shufersal.co.il/", active[0].Sources[0].URL)
}

func TestFilter(t *testing.T) {
	catalog, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	auth := catalog.Filter("auth")
	require.Len(t, auth, 1)
	assert.Equal(t, "tivtaam", auth[0].Slug)

	public := catalog.Filter("public")
	require.Len(t, public, 1)
	assert.Equal(t, "shufersal", public[0].Slug)

	assert.Len(t, catalog.Filter("all"), 2)
}

func TestPublishedPricesTenants(t *testing.T) {
	catalog, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	tenants := catalog.PublishedPricesTenants()
	require.Len(t, tenants, 2)
	assert.Equal(t, "TivTaam", tenants["tivtaam"].Username)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing slug", "retailers:\n  - name: x\n    sources:\n      - url: https://a\n"},
		{"no sources", "retailers:\n  - slug: x\n    name: x\n"},
		{"empty url", "retailers:\n  - slug: x\n    sources:\n      - priority: 1\n"},
		{"duplicate slug", "retailers:\n  - slug: x\n    sources:\n      - url: https://a\n  - slug: x\n    sources:\n      - url: https://b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
