package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/sqllens/sqllens/internal/core"
)

// OpenRouterName is the registry name of the OpenRouter-backed scorer.
const OpenRouterName = "openrouter"

const openRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterConfig carries the credentials and model selection for the
// OpenRouter backend.
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenRouter scores code units through the OpenRouter chat completions
// endpoint.
type OpenRouter struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewOpenRouter constructs the OpenRouter backend. The API key is
// required.
func NewOpenRouter(cfg OpenRouterConfig) (*OpenRouter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "openai/gpt-4o-mini"
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = openRouterEndpoint
	}

	client := resty.New().
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &OpenRouter{
		client:   client,
		model:    model,
		endpoint: endpoint,
	}, nil
}

// Name implements Backend.
func (o *OpenRouter) Name() string {
	return OpenRouterName
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Evaluate implements Backend.
func (o *OpenRouter) Evaluate(ctx context.Context, unit core.CodeUnit) (*core.BackendResult, error) {
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": o.model,
			"messages": []map[string]string{
				{"role": "system", "content": systemPrompt},
				{"role": "user", "content": buildPrompt(unit)},
			},
		}).
		Post(o.endpoint)
	if err != nil {
		return nil, fmt.Errorf("openrouter completion: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openrouter returned status %d", resp.StatusCode())
	}

	var parsed openRouterResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("openrouter response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openrouter returned no choices")
	}

	return parseScorePayload(OpenRouterName, parsed.Choices[0].Message.Content)
}
