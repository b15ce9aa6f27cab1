package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lk2023060901/meo-insight/internal/ai/generator"
	"github.com/lk2023060901/meo-insight/internal/meo/types"
	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	placestypes "github.com/lk2023060901/meo-insight/internal/places/types"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

const reportItems = 2

// AnalysisSchema constrains the model's structured output
var AnalysisSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"meoScore": {
			Type:        jsonschema.Number,
			Description: "10段階評価のMEOスコア。",
		},
		"strengths": {
			Type:        jsonschema.Array,
			Items:       &jsonschema.Definition{Type: jsonschema.String},
			Description: "MEO観点での強みを2つ。",
		},
		"weaknesses": {
			Type:        jsonschema.Array,
			Items:       &jsonschema.Definition{Type: jsonschema.String},
			Description: "MEO観点での改善点を2つ。",
		},
	},
	Required:             []string{"meoScore", "strengths", "weaknesses"},
	AdditionalProperties: false,
}

// Analyzer turns a business record into an MEO report
type Analyzer struct {
	gen    generator.TextGenerator
	logger *logger.Logger
}

// NewAnalyzer 创建分析器
func NewAnalyzer(gen generator.TextGenerator, lgr *logger.Logger) *Analyzer {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Analyzer{gen: gen, logger: lgr.Named("analyzer")}
}

// Analyze never fails: any generation or parse problem yields the degraded report.
func (a *Analyzer) Analyze(ctx context.Context, place placestypes.Place, claimed bool) types.Analysis {
	raw, err := a.gen.GenerateStructured(ctx, BuildAnalysisPrompt(place, claimed), AnalysisSchema)
	if err != nil {
		a.logger.WithContext(ctx).Warn("analysis generation failed",
			zap.String("place_id", place.ID),
			zap.Error(err))
		return types.DegradedAnalysis()
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		a.logger.WithContext(ctx).Warn("analysis output rejected",
			zap.String("place_id", place.ID),
			zap.Error(err))
		return types.DegradedAnalysis()
	}
	return analysis
}

type promptPlace struct {
	DisplayName     string `json:"displayName"`
	Rating          any    `json:"rating"`
	UserRatingCount int    `json:"userRatingCount"`
	ReviewSummary   string `json:"reviewSummary"`
}

// BuildAnalysisPrompt renders the consultant prompt for one business
func BuildAnalysisPrompt(place placestypes.Place, claimed bool) string {
	facts := promptPlace{
		DisplayName:   place.DisplayName.Text,
		Rating:        "N/A",
		ReviewSummary: "なし",
	}
	if place.Rating != nil {
		facts.Rating = json.Number(strconv.FormatFloat(*place.Rating, 'f', -1, 64))
	}
	if place.UserRatingCount != nil {
		facts.UserRatingCount = *place.UserRatingCount
	}
	if place.ReviewSummary != nil && place.ReviewSummary.Text != "" {
		facts.ReviewSummary = place.ReviewSummary.Text
	}
	factsJSON, _ := json.MarshalIndent(facts, "", "  ")

	claimText := "この店舗はGoogleビジネスプロフィールにオーナー登録済みです。"
	if !claimed {
		claimText = fmt.Sprintf("この店舗はGoogleビジネスプロフィールにオーナー未登録の可能性が高いです。改善点として「%s」を必ず含めてください。",
			types.ClaimWeakness)
	}

	var sb strings.Builder
	sb.WriteString("あなたはMEOコンサルタントです。以下の店舗情報を分析し、MEO（マップエンジン最適化）の観点から評価してください。\n\n")
	sb.WriteString(claimText)
	sb.WriteString(" この事実を踏まえて、評価と改善点の提案をお願いします。\n\n")
	sb.WriteString("店舗情報:\n```json\n")
	sb.Write(factsJSON)
	sb.WriteString("\n```\n\n")
	sb.WriteString("評価項目として、以下のJSON形式で回答してください。\n\n")
	sb.WriteString("- meoScore: 10段階評価の数値。レビュー数(userRatingCount)、評価の高さ(rating)、レビューサマリーの有無、GBP登録状況を総合的に判断してください。\n")
	sb.WriteString("- strengths: MEO観点での強みを箇条書きの配列で2つ挙げてください。\n")
	sb.WriteString("- weaknesses: MEO観点での改善点を箇条書きの配列で2つ挙げてください。\n\n")
	sb.WriteString("回答は必ず指定されたJSONスキーマに従ってください。説明や前置きは一切不要です。\n")
	return sb.String()
}

type rawAnalysis struct {
	MEOScore   *float64 `json:"meoScore"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// ParseAnalysis decodes model output, tolerating a markdown code fence.
// The score is clamped to [0,10] and each list is cut to two non-blank items.
func ParseAnalysis(raw string) (types.Analysis, error) {
	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return types.Analysis{}, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	if parsed.MEOScore == nil {
		return types.Analysis{}, fmt.Errorf("%w: missing meoScore", ErrMalformedAnalysis)
	}

	strengths := cleanItems(parsed.Strengths)
	weaknesses := cleanItems(parsed.Weaknesses)
	if len(strengths) == 0 || len(weaknesses) == 0 {
		return types.Analysis{}, fmt.Errorf("%w: empty strengths or weaknesses", ErrMalformedAnalysis)
	}

	return types.Analysis{
		MEOScore:   clampScore(*parsed.MEOScore),
		Strengths:  strengths,
		Weaknesses: weaknesses,
	}, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func cleanItems(items []string) []string {
	out := make([]string, 0, reportItems)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == reportItems {
			break
		}
	}
	return out
}

func clampScore(v float64) float64 {
	switch {
	case v < types.MinScore:
		return types.MinScore
	case v > types.MaxScore:
		return types.MaxScore
	default:
		return v
	}
}
