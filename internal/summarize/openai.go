package summarize

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIGenerator talks to the OpenAI chat API or any endpoint that speaks it.
type OpenAIGenerator struct {
	apiKey  string
	model   string
	baseURL string
	logger  *zap.Logger

	once   sync.Once
	client *openai.Client
}

func NewOpenAI(apiKey, model, baseURL string, logger *zap.Logger) *OpenAIGenerator {
	if strings.TrimSpace(model) == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIGenerator{apiKey: apiKey, model: model, baseURL: strings.TrimSpace(baseURL), logger: logger}
}

func (g *OpenAIGenerator) Name() string { return ProviderOpenAI + "/" + g.model }

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.once.Do(func() {
		cfg := openai.DefaultConfig(g.apiKey)
		if g.baseURL != "" {
			cfg.BaseURL = strings.TrimRight(g.baseURL, "/")
		}
		g.client = openai.NewClientWithConfig(cfg)
	})

	g.logger.Debug("requesting summary", zap.String("model", g.model), zap.Int("prompt_chars", len(prompt)))
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
