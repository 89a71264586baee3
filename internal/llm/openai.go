package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/config"
)

const systemPrompt = "You are a strict regulatory compliance assistant."

// OpenAIClient completes prompts through an OpenAI-compatible chat API. With
// provider "openrouter" it talks to OpenRouter's endpoint with the same wire format.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewOpenAIClient builds a client from cfg. The API key is read from cfg.APIKeyEnv.
func NewOpenAIClient(cfg config.LLMConfig, logger *zap.Logger) (*OpenAIClient, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set", cfg.APIKeyEnv)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	logger.Info("Initializing completion client",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model))
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		logger:      logger,
	}, nil
}

// Complete sends prompt as a single user message and returns the first choice's content.
func (o *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	o.logger.Debug("completion received",
		zap.String("model", o.model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return resp.Choices[0].Message.Content, nil
}
