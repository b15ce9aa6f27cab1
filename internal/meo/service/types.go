package service

import (
	"strconv"

	"github.com/lk2023060901/meo-insight/internal/meo/types"
)

// SearchRequest 检索请求；HTML 表单与 JSON 共用
type SearchRequest struct {
	Query string `json:"query" form:"query"`
}

// TranslateRequest 按需翻译请求
type TranslateRequest struct {
	Text           string `json:"text" binding:"required"`
	TargetLanguage string `json:"target_language"`
}

// TranslateResponse 翻译结果
type TranslateResponse struct {
	Translated     string `json:"translated"`
	TargetLanguage string `json:"target_language"`
}

// SearchResponse 会话检索状态
type SearchResponse struct {
	State   types.SearchState   `json:"state"`
	Query   string              `json:"query"`
	Results []types.ResultEntry `json:"results"`
	Error   string              `json:"error,omitempty"`
}

func toSearchResponse(snap types.SessionSnapshot) *SearchResponse {
	return &SearchResponse{
		State:   snap.State,
		Query:   snap.Query,
		Results: snap.Results,
		Error:   snap.Error,
	}
}

// pageData is the view model of index.html
type pageData struct {
	Query    string
	State    types.SearchState
	Error    string
	Notice   string
	Cards    []cardView
	Searched bool
}

type cardView struct {
	Name         string
	Address      string
	MapLink      string
	Rating       string
	ReviewCount  int
	Review       string
	Translation  string
	Verified     bool
	Score        string
	ScoreBand    string
	ScorePercent string
	Strengths    []string
	Weaknesses   []string
}

func newPageData(snap types.SessionSnapshot) pageData {
	data := pageData{
		Query:    snap.Query,
		State:    snap.State,
		Error:    snap.Error,
		Searched: snap.State != types.SearchStateIdle,
		Cards:    make([]cardView, 0, len(snap.Results)),
	}
	for _, entry := range snap.Results {
		data.Cards = append(data.Cards, newCardView(entry))
	}
	return data
}

func newCardView(entry types.ResultEntry) cardView {
	p := entry.Place
	card := cardView{
		Name:         p.DisplayName.Text,
		Address:      p.FormattedAddress,
		MapLink:      p.MapLink(),
		Rating:       "N/A",
		Verified:     entry.GBPVerified,
		Score:        strconv.FormatFloat(entry.Analysis.MEOScore, 'f', -1, 64),
		ScoreBand:    entry.Analysis.ScoreBand(),
		ScorePercent: strconv.FormatFloat(entry.Analysis.ScorePercent(), 'f', 1, 64),
		Strengths:    entry.Analysis.Strengths,
		Weaknesses:   entry.Analysis.Weaknesses,
	}
	if p.Rating != nil {
		card.Rating = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	}
	if p.UserRatingCount != nil {
		card.ReviewCount = *p.UserRatingCount
	}
	if p.ReviewSummary != nil {
		card.Review = p.ReviewSummary.Text
	}
	if entry.TranslatedReview != nil {
		card.Translation = *entry.TranslatedReview
	}
	return card
}
