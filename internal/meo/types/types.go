package types

import (
	"time"

	placestypes "github.com/lk2023060901/meo-insight/internal/places/types"
)

// Degraded report copy shown when analysis could not be generated
const (
	DegradedStrength = "分析中にエラーが発生しました。"
	DegradedWeakness = "生成AI APIの呼び出しに失敗した可能性があります。"

	// TranslationFailed replaces a translation that could not be produced
	TranslationFailed = "翻訳に失敗しました。"

	// SearchFailedMessage is the user-facing text of a failed search
	SearchFailedMessage = "データの取得または分析中にエラーが発生しました。"

	// ClaimWeakness must appear among the weaknesses of an unclaimed business
	ClaimWeakness = "GBPへのオーナー登録と情報拡充"
)

const (
	MinScore = 0
	MaxScore = 10
)

// Analysis is the MEO report for one business
type Analysis struct {
	MEOScore   float64  `json:"meoScore"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// DegradedAnalysis is the sentinel report used when generation fails
func DegradedAnalysis() Analysis {
	return Analysis{
		MEOScore:   0,
		Strengths:  []string{DegradedStrength},
		Weaknesses: []string{DegradedWeakness},
	}
}

// ScoreBand buckets the score for display: good (>=8), average (>=5) or poor
func (a Analysis) ScoreBand() string {
	switch {
	case a.MEOScore >= 8:
		return "good"
	case a.MEOScore >= 5:
		return "average"
	default:
		return "poor"
	}
}

// ScorePercent is the score as a 0-100 bar width
func (a Analysis) ScorePercent() float64 {
	return a.MEOScore * 100 / MaxScore
}

// ResultEntry is one business together with its report
type ResultEntry struct {
	Place            placestypes.Place `json:"place"`
	Analysis         Analysis          `json:"analysis"`
	TranslatedReview *string           `json:"translatedReview,omitempty"`
	GBPVerified      bool              `json:"gbpVerified"`
}

type SearchState string

const (
	SearchStateIdle      SearchState = "idle"
	SearchStateSearching SearchState = "searching"
	SearchStateSuccess   SearchState = "success"
	SearchStateEmpty     SearchState = "empty"
	SearchStateFailed    SearchState = "failed"
)

// SearchOutcome is the result of one orchestrated search
type SearchOutcome struct {
	State   SearchState   `json:"state"`
	Query   string        `json:"query"`
	Results []ResultEntry `json:"results"`
}

// SessionSnapshot is a point-in-time copy of a session's search state
type SessionSnapshot struct {
	ID         string        `json:"id"`
	State      SearchState   `json:"state"`
	Query      string        `json:"query"`
	Results    []ResultEntry `json:"results"`
	Error      string        `json:"error,omitempty"`
	StartedAt  *time.Time    `json:"startedAt,omitempty"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
}
