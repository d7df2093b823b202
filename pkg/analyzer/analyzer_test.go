package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poliqa/poliqa/pkg/types"
)

func TestAnalyzeIntentRouting(t *testing.T) {
	a := New(nil)

	tests := []struct {
		name      string
		query     string
		intent    types.Intent
		queryType types.QueryType
	}{
		{
			name:      "coverage amount",
			query:     "갑상선암 보장 금액은 얼마인가요?",
			intent:    types.IntentCoverageAmount,
			queryType: types.QueryGraphTraversal,
		},
		{
			name:      "waiting period",
			query:     "암 진단 대기기간은 며칠인가요?",
			intent:    types.IntentWaitingPeriod,
			queryType: types.QueryGraphTraversal,
		},
		{
			name:      "exclusions",
			query:     "보장 제외 항목을 알려주세요",
			intent:    types.IntentExclusions,
			queryType: types.QueryDirectLookup,
		},
		{
			name:      "comparison",
			query:     "위암과 폐암 보장 차이를 비교해줘",
			intent:    types.IntentComparison,
			queryType: types.QueryGraphTraversal,
		},
		{
			name:      "summary",
			query:     "이 보험 상품 내용을 요약해줘",
			intent:    types.IntentPolicySummary,
			queryType: types.QueryVectorSearch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := a.Analyze(tt.query, nil)
			require.NotNil(t, analysis)
			assert.Equal(t, tt.intent, analysis.Intent)
			assert.Equal(t, tt.queryType, analysis.QueryType)
			assert.Greater(t, analysis.IntentConfidence, 0.0)
			assert.LessOrEqual(t, analysis.IntentConfidence, 1.0)
		})
	}
}

func TestAnalyzeNeverFails(t *testing.T) {
	a := New(nil)

	for _, query := range []string{"", "   ", "???", "the weather is nice"} {
		analysis := a.Analyze(query, nil)
		require.NotNil(t, analysis, "query %q", query)
	}

	analysis := a.Analyze("", nil)
	assert.Equal(t, types.IntentUnknown, analysis.Intent)
	assert.Zero(t, analysis.IntentConfidence)
	assert.False(t, analysis.IsAnswerable)
}

func TestAnalyzeUnanswerableWithoutAnchor(t *testing.T) {
	a := New(nil)

	analysis := a.Analyze("보장 금액은 얼마인가요?", nil)

	assert.Equal(t, types.IntentCoverageAmount, analysis.Intent)
	assert.False(t, analysis.IsAnswerable)
	require.NotEmpty(t, analysis.Clarification)
	assert.True(t,
		strings.Contains(analysis.Clarification, "질병") || strings.Contains(analysis.Clarification, "보장"),
		"clarification should name the missing entity type: %q", analysis.Clarification)
}

func TestAnalyzeAnswerableWithAnchor(t *testing.T) {
	a := New(nil)

	analysis := a.Analyze("갑상선암 보장 금액은 얼마인가요?", nil)

	assert.True(t, analysis.IsAnswerable)
	assert.Empty(t, analysis.Clarification)

	disease, ok := analysis.FirstEntity(types.EntityDisease)
	require.True(t, ok)
	assert.Equal(t, "갑상선암", disease.Normalized)
}

func TestComparisonNeedsTwoDiseases(t *testing.T) {
	a := New(nil)

	one := a.Analyze("위암 보장 차이를 비교해줘", nil)
	assert.Equal(t, types.IntentComparison, one.Intent)
	assert.False(t, one.IsAnswerable)

	two := a.Analyze("위암과 폐암 보장 차이를 비교해줘", nil)
	assert.True(t, two.IsAnswerable)
}

func TestDetectTopK(t *testing.T) {
	a := New(nil)

	scores := a.DetectTopK("암 보장 금액과 대기기간을 알려주세요", 3)

	require.NotEmpty(t, scores)
	assert.LessOrEqual(t, len(scores), 3)
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1].Score, scores[i].Score)
	}
}

func TestIsComplex(t *testing.T) {
	a := New(nil)

	assert.True(t, a.IsComplex("갑상선암 보장 금액이랑 대기기간 둘 다 알려줘"))
	assert.False(t, a.IsComplex("안녕하세요"))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "ko", detectLanguage("갑상선암 보장"))
	assert.Equal(t, "en", detectLanguage("what does this policy cover"))
	assert.Equal(t, "ko", detectLanguage("123"))
}

func TestExtractKeywords(t *testing.T) {
	keywords := extractKeywords("갑상선암 보장 금액은 얼마인가요?")

	assert.Contains(t, keywords, "갑상선암")
	assert.Contains(t, keywords, "보장")
	for _, kw := range keywords {
		assert.GreaterOrEqual(t, len([]rune(kw)), 2)
	}
}

func TestDiseaseKBLookup(t *testing.T) {
	kb := DefaultDiseaseKB()

	entry, ok := kb.Lookup("갑상선암")
	require.True(t, ok)
	assert.Equal(t, "C73", entry.KCDCode)

	alias, ok := kb.Lookup("심근경색")
	require.True(t, ok)
	assert.Equal(t, "급성심근경색", alias.Name)

	_, ok = kb.Lookup("없는병")
	assert.False(t, ok)
}
