package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDegradedAnalysis(t *testing.T) {
	a := DegradedAnalysis()
	assert.Equal(t, 0.0, a.MEOScore)
	assert.NotEmpty(t, a.Strengths)
	assert.NotEmpty(t, a.Weaknesses)
	assert.Equal(t, "poor", a.ScoreBand())
}

func TestAnalysis_ScoreBand(t *testing.T) {
	tests := []struct {
		score float64
		band  string
	}{
		{10, "good"},
		{8, "good"},
		{7.9, "average"},
		{5, "average"},
		{4.99, "poor"},
		{0, "poor"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.band, Analysis{MEOScore: tt.score}.ScoreBand(), "score %v", tt.score)
	}
	assert.Equal(t, 75.0, Analysis{MEOScore: 7.5}.ScorePercent())
}
