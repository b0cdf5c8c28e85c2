// Package agents provides the reasoning-model stages of the analysis
// pipeline: findings aggregation and streamed recommendation generation.
package agents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// LLMClient defines the reasoning-model operations the pipeline consumes.
type LLMClient interface {
	// CompleteWithSystem sends a prompt with a system message and returns
	// the full response.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// StreamWithSystem sends a prompt with a system message and consumes the
	// response incrementally. Each received chunk is passed to onChunk in
	// arrival order; the accumulated full text is returned once the stream
	// completes. A cancelled context discards the partial accumulation.
	StreamWithSystem(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string)) (string, error)
}

// OpenAIClient implements LLMClient using the OpenAI chat completions API.
// A custom base URL supports Azure-OpenAI-compatible endpoints.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI LLM client. baseURL may be empty to
// use the public API endpoint.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// CompleteWithSystem sends a prompt with system message to the LLM.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: 4096,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamWithSystem sends a prompt with system message and streams the
// response. Chunks are forwarded to onChunk strictly in arrival order.
func (c *OpenAIClient) StreamWithSystem(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string)) (string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: 4096,
		Stream:    true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai stream failed: %w", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Partial accumulation is discarded; no partial report is valid.
			return "", fmt.Errorf("openai stream receive failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if onChunk != nil {
			onChunk(delta)
		}
		sb.WriteString(delta)
	}

	return sb.String(), nil
}

// Model returns the model name.
func (c *OpenAIClient) Model() string {
	return c.model
}
