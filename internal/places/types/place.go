package types

// LocalizedText is a text fragment tagged with its BCP-47 language code
type LocalizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

// Place is one business returned by a lookup. Optional attributes are nil
// when the backend does not report them.
type Place struct {
	ID               string         `json:"id"`
	DisplayName      LocalizedText  `json:"displayName"`
	FormattedAddress string         `json:"formattedAddress"`
	GoogleMapsURI    *string        `json:"googleMapsUri,omitempty"`
	Rating           *float64       `json:"rating,omitempty"`
	UserRatingCount  *int           `json:"userRatingCount,omitempty"`
	ReviewSummary    *LocalizedText `json:"reviewSummary,omitempty"`
}

// Clone returns a deep copy so callers never share optional fields
func (p Place) Clone() Place {
	out := p
	if p.GoogleMapsURI != nil {
		v := *p.GoogleMapsURI
		out.GoogleMapsURI = &v
	}
	if p.Rating != nil {
		v := *p.Rating
		out.Rating = &v
	}
	if p.UserRatingCount != nil {
		v := *p.UserRatingCount
		out.UserRatingCount = &v
	}
	if p.ReviewSummary != nil {
		v := *p.ReviewSummary
		out.ReviewSummary = &v
	}
	return out
}

// MapLink returns the maps URI or "" when absent
func (p Place) MapLink() string {
	if p.GoogleMapsURI == nil {
		return ""
	}
	return *p.GoogleMapsURI
}
