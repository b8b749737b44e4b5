package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zilazol/price-crawler/internal/types"
)

func TestRunErrorExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		manifest types.RunManifest
		wantErr  bool
	}{
		{"all succeeded", types.RunManifest{Retailers: 3, Succeeded: 3}, false},
		{"retailer failures", types.RunManifest{Retailers: 3, Succeeded: 1, Failed: 2}, true},
		{"deadline with partial results", types.RunManifest{Retailers: 7, Succeeded: 4, Failed: 3, TimedOut: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runError(&tt.manifest)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
