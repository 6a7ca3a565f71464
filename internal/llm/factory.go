package llm

import (
	"context"
	"fmt"
)

// NewClient constructs the named provider's client.
func NewClient(ctx context.Context, provider, apiKey, baseURL string) (Client, error) {
	switch provider {
	case "anthropic":
		return NewAnthropicClient(apiKey), nil
	case "openai":
		return NewOpenAIClient(apiKey, baseURL), nil
	case "gemini":
		return NewGeminiClient(ctx, apiKey)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q (anthropic, openai, gemini)", provider)
	}
}
