package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/lk2023060901/meo-insight/internal/places/types"
	"github.com/tidwall/gjson"
)

// placesFieldMask limits the Places API response to what a report needs
const placesFieldMask = "places.id,places.displayName,places.formattedAddress,places.googleMapsUri," +
	"places.rating,places.userRatingCount,places.reviewSummary"

// GooglePlacesProvider implements the Places API (New) text search
type GooglePlacesProvider struct {
	*BaseProvider
}

// NewGooglePlacesProvider creates a new Google Places provider
func NewGooglePlacesProvider(config *types.ProviderConfig) (Provider, error) {
	return &GooglePlacesProvider{BaseProvider: NewBaseProvider(config)}, nil
}

type searchTextRequest struct {
	TextQuery      string `json:"textQuery"`
	LanguageCode   string `json:"languageCode,omitempty"`
	MaxResultCount int    `json:"maxResultCount,omitempty"`
}

type searchTextResponse struct {
	Places []struct {
		ID               string               `json:"id"`
		DisplayName      *types.LocalizedText `json:"displayName"`
		FormattedAddress string               `json:"formattedAddress"`
		GoogleMapsURI    *string              `json:"googleMapsUri"`
		Rating           *float64             `json:"rating"`
		UserRatingCount  *int                 `json:"userRatingCount"`
		ReviewSummary    *struct {
			Text *types.LocalizedText `json:"text"`
		} `json:"reviewSummary"`
	} `json:"places"`
}

func (p *GooglePlacesProvider) Search(ctx context.Context, query string) ([]types.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.Place{}, nil
	}

	apiURL := strings.TrimRight(p.config.APIHost, "/") + "/v1/places:searchText"
	resp, err := p.Client().R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Goog-Api-Key", p.config.APIKey).
		SetHeader("X-Goog-FieldMask", placesFieldMask).
		SetBody(searchTextRequest{
			TextQuery:      query,
			LanguageCode:   p.config.LanguageCode,
			MaxResultCount: p.config.MaxResults,
		}).
		Post(apiURL)
	if err != nil {
		return nil, &types.ProviderError{
			Provider: p.GetID(),
			Code:     "REQUEST_FAILED",
			Message:  "Failed to execute request",
			Err:      err,
		}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = string(body)
		}
		return nil, &types.ProviderError{
			Provider: p.GetID(),
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode()),
			Message:  msg,
		}
	}

	var parsed searchTextResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &types.ProviderError{
			Provider: p.GetID(),
			Code:     "DECODE_FAILED",
			Message:  "Failed to decode response",
			Err:      fmt.Errorf("%w: %v", types.ErrInvalidResponse, err),
		}
	}

	places := make([]types.Place, 0, len(parsed.Places))
	for _, r := range parsed.Places {
		place := types.Place{
			ID:               r.ID,
			FormattedAddress: r.FormattedAddress,
			GoogleMapsURI:    r.GoogleMapsURI,
			Rating:           r.Rating,
			UserRatingCount:  r.UserRatingCount,
		}
		if r.DisplayName != nil {
			place.DisplayName = *r.DisplayName
		}
		if r.ReviewSummary != nil && r.ReviewSummary.Text != nil && r.ReviewSummary.Text.Text != "" {
			summary := *r.ReviewSummary.Text
			place.ReviewSummary = &summary
		}
		places = append(places, place)
	}

	return places, nil
}
