package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poliqa/poliqa/pkg/types"
)

func TestParseAnswerWellFormed(t *testing.T) {
	content := `{"answer": "암진단특약으로 1천만원이 지급됩니다.", "confidence": 0.9,
		"sources": [{"id": "cov-1", "snippet": "암진단특약 10,000,000원", "relevance": 0.95}]}`

	got, err := parseAnswer(content)

	require.NoError(t, err)
	assert.Equal(t, "암진단특약으로 1천만원이 지급됩니다.", got.Text)
	assert.InDelta(t, 0.9, got.Confidence, 1e-12)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "cov-1", got.Sources[0].ID)
}

func TestParseAnswerRepairsMalformedJSON(t *testing.T) {
	// Trailing comma and unquoted key, typical model sloppiness.
	content := `{"answer": "보장됩니다", confidence: 0.7,}`

	got, err := parseAnswer(content)

	require.NoError(t, err)
	assert.Equal(t, "보장됩니다", got.Text)
	assert.InDelta(t, 0.7, got.Confidence, 1e-12)
}

func TestParseAnswerClampsConfidence(t *testing.T) {
	got, err := parseAnswer(`{"answer": "네", "confidence": 1.7}`)

	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestParseAnswerRejectsEmptyAnswer(t *testing.T) {
	_, err := parseAnswer(`{"confidence": 0.9}`)
	assert.Error(t, err)

	_, err = parseAnswer("")
	assert.Error(t, err)
}

func TestBuildContextCapsResults(t *testing.T) {
	results := make([]types.FusedResult, 12)
	for i := range results {
		results[i] = types.FusedResult{
			RetrievalResult: types.RetrievalResult{NodeID: "n", Content: "조항"},
			FusedScore:      0.5,
		}
	}

	block := buildContext(results)

	assert.Contains(t, block, "[8]")
	assert.NotContains(t, block, "[9]")
}

type stubGenerator struct {
	answer *types.Answer
	err    error
	calls  int
}

func (s *stubGenerator) Generate(ctx context.Context, question string, results []types.FusedResult) (*types.Answer, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

func (s *stubGenerator) Close() error { return nil }

func TestFallbackChainEscalatesOnError(t *testing.T) {
	primary := &stubGenerator{err: errors.New("provider down")}
	secondary := &stubGenerator{answer: &types.Answer{Text: "보장됩니다", Confidence: 0.8}}
	chain := NewFallbackChain(0.5, primary, secondary)

	got, err := chain.Generate(context.Background(), "질문", nil)

	require.NoError(t, err)
	assert.Equal(t, "보장됩니다", got.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackChainEscalatesOnLowConfidence(t *testing.T) {
	primary := &stubGenerator{answer: &types.Answer{Text: "아마도요", Confidence: 0.2}}
	secondary := &stubGenerator{answer: &types.Answer{Text: "확실합니다", Confidence: 0.9}}
	chain := NewFallbackChain(0.5, primary, secondary)

	got, err := chain.Generate(context.Background(), "질문", nil)

	require.NoError(t, err)
	assert.Equal(t, "확실합니다", got.Text)
}

func TestFallbackChainReturnsBestWhenNoneAcceptable(t *testing.T) {
	first := &stubGenerator{answer: &types.Answer{Text: "낮음", Confidence: 0.2}}
	second := &stubGenerator{answer: &types.Answer{Text: "조금 나음", Confidence: 0.4}}
	chain := NewFallbackChain(0.9, first, second)

	got, err := chain.Generate(context.Background(), "질문", nil)

	require.NoError(t, err)
	assert.Equal(t, "조금 나음", got.Text)
}

func TestFallbackChainAllFailed(t *testing.T) {
	chain := NewFallbackChain(0.5,
		&stubGenerator{err: errors.New("a down")},
		&stubGenerator{err: errors.New("b down")})

	_, err := chain.Generate(context.Background(), "질문", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "a down")
	assert.Contains(t, err.Error(), "b down")
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	failing := &stubGenerator{err: errors.New("llm down")}
	breaker := NewCircuitBreakerGenerator(failing, BreakerConfig{
		Enabled:          true,
		Timeout:          60,
		ReadyToTripRatio: 0.5,
	}, &alertRecorder{}, "answer")

	for i := 0; i < 5; i++ {
		_, err := breaker.Generate(context.Background(), "질문", nil)
		require.Error(t, err)
	}

	// The breaker is now open: calls fail fast without reaching the
	// underlying generator.
	before := failing.calls
	_, err := breaker.Generate(context.Background(), "질문", nil)
	require.Error(t, err)
	assert.Equal(t, before, failing.calls)
}

type alertRecorder struct {
	subjects []string
}

func (a *alertRecorder) Alert(subject, message string) error {
	a.subjects = append(a.subjects, subject)
	return nil
}
