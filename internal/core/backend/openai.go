package backend

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sqllens/sqllens/internal/core"
)

// OpenAIName is the registry name of the OpenAI-backed scorer.
const OpenAIName = "openai"

// OpenAIConfig carries the credentials and model selection for the
// OpenAI backend.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenAI scores code units through the OpenAI chat completion API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI constructs the OpenAI backend. The API key is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Name implements Backend.
func (o *OpenAI) Name() string {
	return OpenAIName
}

// Evaluate implements Backend.
func (o *OpenAI) Evaluate(ctx context.Context, unit core.CodeUnit) (*core.BackendResult, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(unit)},
		},
		Temperature: 0.1,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return parseScorePayload(OpenAIName, resp.Choices[0].Message.Content)
}
