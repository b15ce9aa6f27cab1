// Package gbp estimates whether a business has claimed its Google Business
// Profile. Every estimator reports false on missing input or failure.
package gbp

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeHTTP      Mode = "http"
)

// DefaultMarker is the map-link substring that flags an unclaimed profile
const DefaultMarker = "unclaimed"

// ClaimEstimator reports whether the profile behind mapLink looks claimed.
// It never returns an error; nil or empty links and failures yield false.
type ClaimEstimator interface {
	IsClaimed(ctx context.Context, mapLink *string) bool
}

// Config selects and tunes an estimator
type Config struct {
	Mode     Mode
	Marker   string
	MinDelay time.Duration
	MaxDelay time.Duration
	ProbeURL string
	Timeout  time.Duration
}

// New builds the estimator named by config.Mode
func New(config *Config, logger *zap.Logger) (ClaimEstimator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch config.Mode {
	case ModeHeuristic, "":
		return NewHeuristicEstimator(config.Marker, config.MinDelay, config.MaxDelay), nil
	case ModeHTTP:
		if config.ProbeURL == "" {
			return nil, fmt.Errorf("gbp: probe url is required for mode %q", config.Mode)
		}
		return NewHTTPEstimator(config.ProbeURL, config.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("gbp: unsupported mode %q", config.Mode)
	}
}

func linkValue(mapLink *string) (string, bool) {
	if mapLink == nil || *mapLink == "" {
		return "", false
	}
	return *mapLink, true
}
