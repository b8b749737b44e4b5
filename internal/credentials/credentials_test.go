package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilazol/price-crawler/internal/types"
)

func TestLookupExact(t *testing.T) {
	s := NewStatic(map[string]types.Credentials{
		"tivtaam": {Username: "TivTaam", Password: ""},
	})

	creds, ok := s.Lookup("tivtaam")
	require.True(t, ok)
	assert.Equal(t, "TivTaam", creds.Username)
}

func TestLookupCaseInsensitiveFallback(t *testing.T) {
	s := NewStatic(map[string]types.Credentials{
		"TivTaam": {Username: "TivTaam"},
	})

	creds, ok := s.Lookup("tivtaam")
	require.True(t, ok)
	assert.Equal(t, "TivTaam", creds.Username)
}

func TestLookupMiss(t *testing.T) {
	s := NewStatic(nil)

	_, ok := s.Lookup("nobody")
	assert.False(t, ok)
}

func TestEnvOverrideWins(t *testing.T) {
	t.Setenv(EnvVar, `{"keshet": {"username": "FromEnv", "password": "secret"}}`)

	s, err := New(map[string]types.Credentials{
		"keshet":  {Username: "FromFile"},
		"tivtaam": {Username: "TivTaam"},
	})
	require.NoError(t, err)

	creds, ok := s.Lookup("keshet")
	require.True(t, ok)
	assert.Equal(t, "FromEnv", creds.Username)
	assert.Equal(t, "secret", creds.Password)

	creds, ok = s.Lookup("tivtaam")
	require.True(t, ok)
	assert.Equal(t, "TivTaam", creds.Username)
}

func TestEnvMalformed(t *testing.T) {
	t.Setenv(EnvVar, `{not json`)

	_, err := New(nil)
	assert.Error(t, err)
}
