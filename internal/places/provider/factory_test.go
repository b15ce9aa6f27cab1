package provider

import (
	"testing"

	"github.com/lk2023060901/meo-insight/internal/places/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFactory(t *testing.T) {
	factory := NewFactory()

	providers := factory.ListProviders()
	assert.Contains(t, providers, types.ProviderFixture)
	assert.Contains(t, providers, types.ProviderGoogle)
}

func TestFactory_Create(t *testing.T) {
	factory := NewFactory()

	tests := []struct {
		name     string
		config   *types.ProviderConfig
		wantType string
		wantErr  error
	}{
		{
			name:     "fixture provider",
			config:   &types.ProviderConfig{ID: types.ProviderFixture},
			wantType: "*provider.FixtureProvider",
		},
		{
			name: "google provider",
			config: &types.ProviderConfig{
				ID:      types.ProviderGoogle,
				APIHost: "https://places.googleapis.com",
				APIKey:  "test-key",
			},
			wantType: "*provider.GooglePlacesProvider",
		},
		{
			name:    "google without key",
			config:  &types.ProviderConfig{ID: types.ProviderGoogle, APIHost: "https://places.googleapis.com"},
			wantErr: types.ErrMissingAPIKey,
		},
		{
			name:    "unknown provider",
			config:  &types.ProviderConfig{ID: "yelp"},
			wantErr: types.ErrProviderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := factory.Create(tt.config)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, typeName(p))
			assert.Equal(t, tt.config.ID, p.GetID())
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *FixtureProvider:
		return "*provider.FixtureProvider"
	case *GooglePlacesProvider:
		return "*provider.GooglePlacesProvider"
	default:
		return "unknown"
	}
}
