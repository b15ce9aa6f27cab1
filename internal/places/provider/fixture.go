package provider

import (
	"context"
	"strings"
	"time"

	"github.com/lk2023060901/meo-insight/internal/places/types"
)

// FixtureProvider serves a fixed set of Shinjuku businesses after a simulated
// network delay. Entries 4 and 5 carry an "unclaimed" marker in their map link.
type FixtureProvider struct {
	*BaseProvider
	delay  time.Duration
	places []types.Place
}

// NewFixtureProvider creates the static demo provider
func NewFixtureProvider(config *types.ProviderConfig) (Provider, error) {
	return &FixtureProvider{
		BaseProvider: NewBaseProvider(config),
		delay:        config.FixtureDelay,
		places:       fixturePlaces(),
	}, nil
}

func (p *FixtureProvider) Search(ctx context.Context, query string) ([]types.Place, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, &types.ProviderError{
				Provider: p.GetID(),
				Code:     "CANCELLED",
				Message:  "lookup cancelled",
				Err:      ctx.Err(),
			}
		case <-timer.C:
		}
	}

	if strings.TrimSpace(query) == "" {
		return []types.Place{}, nil
	}

	out := make([]types.Place, len(p.places))
	for i, place := range p.places {
		out[i] = place.Clone()
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }

func fixturePlaces() []types.Place {
	return []types.Place{
		{
			ID:               "1",
			DisplayName:      types.LocalizedText{Text: "新宿ゴールデン街の隠れ家バー", LanguageCode: "ja"},
			FormattedAddress: "東京都新宿区歌舞伎町1-1-1",
			GoogleMapsURI:    ptr("https://maps.google.com/?cid=11111"),
			Rating:           ptr(4.8),
			UserRatingCount:  ptr(850),
			ReviewSummary:    &types.LocalizedText{Text: "雰囲気が最高で、カクテルの種類も豊富。マスターの人柄も良い。", LanguageCode: "ja"},
		},
		{
			ID:               "2",
			DisplayName:      types.LocalizedText{Text: "Shinjuku Ramen Master", LanguageCode: "en"},
			FormattedAddress: "1-2-2 Kabukicho, Shinjuku, Tokyo",
			GoogleMapsURI:    ptr("https://maps.google.com/?cid=22222"),
			Rating:           ptr(4.5),
			UserRatingCount:  ptr(1200),
			ReviewSummary: &types.LocalizedText{
				Text:         "Best tonkotsu ramen in town! The broth is rich and the noodles are perfect. Expect a long queue during peak hours.",
				LanguageCode: "en",
			},
		},
		{
			ID:               "3",
			DisplayName:      types.LocalizedText{Text: "古き良き喫茶店 新宿", LanguageCode: "ja"},
			FormattedAddress: "東京都新宿区西新宿2-1-1",
			GoogleMapsURI:    ptr("https://maps.google.com/?cid=33333"),
			Rating:           ptr(4.2),
			UserRatingCount:  ptr(250),
		},
		{
			ID:               "4",
			DisplayName:      types.LocalizedText{Text: "歌舞伎町 中華料理", LanguageCode: "ja"},
			FormattedAddress: "東京都新宿区歌舞伎町周辺",
			GoogleMapsURI:    ptr("https://maps.google.com/?cid=44444&unclaimed=true"),
			Rating:           ptr(3.5),
			UserRatingCount:  ptr(15),
			ReviewSummary:    &types.LocalizedText{Text: "味は普通。", LanguageCode: "ja"},
		},
		{
			ID:               "5",
			DisplayName:      types.LocalizedText{Text: "西新宿の小さな本屋", LanguageCode: "ja"},
			FormattedAddress: "東京都新宿区西新宿",
			GoogleMapsURI:    ptr("https://maps.google.com/?cid=55555&unclaimed=true"),
			UserRatingCount:  ptr(2),
		},
	}
}
