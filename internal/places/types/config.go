package types

import "time"

type ProviderID string

const (
	ProviderFixture ProviderID = "fixture"
	ProviderGoogle  ProviderID = "google"
)

// ProviderConfig represents place lookup provider configuration
type ProviderConfig struct {
	ID ProviderID `json:"id" yaml:"id"`

	// API settings
	APIHost      string `json:"api_host" yaml:"api_host"`
	APIKey       string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	LanguageCode string `json:"language_code,omitempty" yaml:"language_code,omitempty"`
	MaxResults   int    `json:"max_results,omitempty" yaml:"max_results,omitempty"`

	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// fixture only
	FixtureDelay time.Duration `json:"fixture_delay,omitempty" yaml:"fixture_delay,omitempty"`
}

// Validate validates the provider configuration
func (c *ProviderConfig) Validate() error {
	switch c.ID {
	case ProviderFixture:
		if c.FixtureDelay < 0 {
			return ErrInvalidDelay
		}
	case ProviderGoogle:
		if c.APIHost == "" {
			return ErrInvalidAPIHost
		}
		if c.APIKey == "" {
			return ErrMissingAPIKey
		}
	case "":
		return ErrInvalidProviderID
	}
	return nil
}
