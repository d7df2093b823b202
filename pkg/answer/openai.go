package answer

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/poliqa/poliqa/pkg/types"
)

const systemPrompt = `당신은 보험 약관 전문 상담원입니다. 아래 검색 결과만 근거로 질문에 답하세요.
검색 결과에 없는 내용은 지어내지 말고, 근거가 부족하면 낮은 confidence를 반환하세요.
반드시 다음 JSON 형식으로만 응답하세요:
{"answer": "...", "confidence": 0.0, "sources": [{"id": "...", "snippet": "...", "relevance": 0.0}]}`

// Config configures the OpenAI answer generator.
// Supports OpenAI-compatible services through a custom BaseURL.
type Config struct {
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// OpenAIGenerator implements Generator on the chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	config Config
}

// NewOpenAIGenerator creates an answer generator against OpenAI or an
// OpenAI-compatible service.
func NewOpenAIGenerator(apiKey string, config Config) (*OpenAIGenerator, error) {
	var client *openai.Client

	if config.BaseURL != "" {
		if apiKey == "" {
			apiKey = "dummy-key"
		}
		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = config.BaseURL
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		if apiKey == "" {
			return nil, fmt.Errorf("openai api key is required")
		}
		client = openai.NewClient(apiKey)
	}

	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1024
	}

	return &OpenAIGenerator{
		client: client,
		config: config,
	}, nil
}

// Generate asks the model for a grounded answer over the fused results.
func (g *OpenAIGenerator) Generate(ctx context.Context, question string, results []types.FusedResult) (*types.Answer, error) {
	userPrompt := fmt.Sprintf("검색 결과:\n%s\n질문: %s", buildContext(results), question)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.config.Model,
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from model")
	}

	return parseAnswer(resp.Choices[0].Message.Content)
}

// Close implements Generator.
func (g *OpenAIGenerator) Close() error {
	return nil
}
