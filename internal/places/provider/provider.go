package provider

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lk2023060901/meo-insight/internal/places/types"
)

// Provider looks up businesses matching a free-text query.
// An empty query yields an empty slice and no error.
type Provider interface {
	Search(ctx context.Context, query string) ([]types.Place, error)

	// GetID returns the provider ID
	GetID() types.ProviderID
}

// BaseProvider provides common functionality for all providers
type BaseProvider struct {
	config *types.ProviderConfig

	clientOnce sync.Once
	client     *resty.Client
}

// NewBaseProvider creates a new base provider
func NewBaseProvider(config *types.ProviderConfig) *BaseProvider {
	return &BaseProvider{config: config}
}

// GetID returns the provider ID
func (b *BaseProvider) GetID() types.ProviderID {
	return b.config.ID
}

// GetConfig returns the provider configuration
func (b *BaseProvider) GetConfig() *types.ProviderConfig {
	return b.config
}

// Client 首次使用时创建 HTTP 客户端，离线 provider 不会触发
func (b *BaseProvider) Client() *resty.Client {
	b.clientOnce.Do(func() {
		timeout := b.config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		b.client = resty.NewWithClient(&http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}).SetTimeout(timeout)
	})
	return b.client
}
