package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Compile-time assertion: *OpenAIClient satisfies Client.
var _ Client = (*OpenAIClient)(nil)

// OpenAIClient calls the OpenAI chat completion API, or any
// OpenAI-compatible endpoint when baseURL is set.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient builds a client from an API key. baseURL may be empty.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(config)}
}

// Generate sends one prompt and returns the model's text response.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("llm: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: openai: no response choices")
	}
	return resp.Choices[0].Message.Content, nil
}
