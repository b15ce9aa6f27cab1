package gbp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ProbeRequest is the body of POST /check-claim
type ProbeRequest struct {
	MapLink string `json:"mapLink" binding:"required"`
}

// ProbeResponse is the reply of POST /check-claim
type ProbeResponse struct {
	IsClaimed bool `json:"isClaimed"`
}

// HTTPEstimator delegates to a remote probe service speaking the
// /check-claim contract.
type HTTPEstimator struct {
	endpoint string
	client   *resty.Client
	logger   *zap.Logger
}

func NewHTTPEstimator(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPEstimator {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPEstimator{
		endpoint: strings.TrimRight(baseURL, "/") + "/check-claim",
		client:   resty.New().SetTimeout(timeout),
		logger:   logger,
	}
}

func (e *HTTPEstimator) IsClaimed(ctx context.Context, mapLink *string) bool {
	link, ok := linkValue(mapLink)
	if !ok {
		return false
	}

	claimed, err := e.probe(ctx, link)
	if err != nil {
		e.logger.Warn("claim probe failed, assuming unclaimed",
			zap.String("map_link", link),
			zap.Error(err))
		return false
	}
	return claimed
}

func (e *HTTPEstimator) probe(ctx context.Context, link string) (bool, error) {
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(ProbeRequest{MapLink: link}).
		Post(e.endpoint)
	if err != nil {
		return false, err
	}

	if resp.StatusCode() != http.StatusOK {
		return false, fmt.Errorf("probe returned status %d", resp.StatusCode())
	}

	var out ProbeResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return false, fmt.Errorf("decode probe response: %w", err)
	}
	return out.IsClaimed, nil
}
