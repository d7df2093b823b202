package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/poliqa/poliqa/pkg/types"
)

// Generator produces a grounded answer from the ranked retrieval results.
type Generator interface {
	Generate(ctx context.Context, question string, results []types.FusedResult) (*types.Answer, error)
	Close() error
}

// maxContextResults caps how many results feed the prompt context.
const maxContextResults = 8

// maxSnippetRunes truncates a single result's text in the prompt context.
const maxSnippetRunes = 500

// buildContext renders the top results into the numbered context block the
// prompt template expects.
func buildContext(results []types.FusedResult) string {
	n := len(results)
	if n > maxContextResults {
		n = maxContextResults
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		r := results[i]
		text := r.Content
		if runes := []rune(text); len(runes) > maxSnippetRunes {
			text = string(runes[:maxSnippetRunes])
		}
		fmt.Fprintf(&b, "[%d] (id=%s, score=%.3f) %s\n", i+1, r.NodeID, r.FusedScore, text)
	}
	return b.String()
}

// wireAnswer is the JSON shape the model is instructed to return.
type wireAnswer struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Sources    []struct {
		ID        string  `json:"id"`
		Snippet   string  `json:"snippet"`
		Relevance float64 `json:"relevance"`
	} `json:"sources"`
}

// parseAnswer decodes the model output, repairing malformed JSON first.
// Confidence is clamped into [0,1].
func parseAnswer(content string) (*types.Answer, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty model output")
	}

	var wire wireAnswer
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(content)
		if repairErr != nil {
			return nil, fmt.Errorf("unparseable model output: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &wire); err != nil {
			return nil, fmt.Errorf("unparseable model output after repair: %w", err)
		}
	}
	if wire.Answer == "" {
		return nil, fmt.Errorf("model output missing answer field")
	}

	out := &types.Answer{
		Text:       wire.Answer,
		Confidence: clamp01(wire.Confidence),
	}
	for _, s := range wire.Sources {
		out.Sources = append(out.Sources, types.AnswerSource{
			ID:        s.ID,
			Snippet:   s.Snippet,
			Relevance: clamp01(s.Relevance),
		})
	}
	return out, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
