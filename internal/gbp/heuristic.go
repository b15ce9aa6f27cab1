package gbp

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
)

// HeuristicEstimator simulates a remote profile check: it waits a random
// delay in [minDelay, maxDelay) and then reports claimed unless the link
// contains the marker.
type HeuristicEstimator struct {
	marker   string
	minDelay time.Duration
	maxDelay time.Duration
	jitter   func() float64
}

func NewHeuristicEstimator(marker string, minDelay, maxDelay time.Duration) *HeuristicEstimator {
	if marker == "" {
		marker = DefaultMarker
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &HeuristicEstimator{
		marker:   marker,
		minDelay: minDelay,
		maxDelay: maxDelay,
		jitter:   rand.Float64,
	}
}

func (e *HeuristicEstimator) IsClaimed(ctx context.Context, mapLink *string) bool {
	link, ok := linkValue(mapLink)
	if !ok {
		return false
	}

	if d := e.delay(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
		}
	}

	return !strings.Contains(link, e.marker)
}

func (e *HeuristicEstimator) delay() time.Duration {
	span := e.maxDelay - e.minDelay
	if span <= 0 {
		return e.minDelay
	}
	return e.minDelay + time.Duration(e.jitter()*float64(span))
}
