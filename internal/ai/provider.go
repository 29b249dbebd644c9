// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ai calls the upstream completion provider.
package ai

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/morganforge/skiff/internal/api"
	"github.com/morganforge/skiff/internal/model"
)

// systemPrompt frames every completion request.
const systemPrompt = "You are a helpful assistant."

// MockReply is returned by the mock provider when no API key is set.
const MockReply = "This is a mock AI response. AI API key is not configured."

// =============================================================================
// PROVIDER INTERFACE
// =============================================================================

// Provider generates an assistant reply from the conversation so far.
type Provider interface {
	Complete(ctx context.Context, history []model.Message) (string, error)
}

// Config configures the OpenAI-compatible provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewProvider returns the OpenAI-compatible provider, or the mock
// provider when no API key is configured.
func NewProvider(cfg Config) Provider {
	if cfg.APIKey == "" {
		slog.Info("ai: no API key configured, using mock provider")
		return MockProvider{}
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &openAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: timeout,
	}
}

// =============================================================================
// OPENAI PROVIDER
// =============================================================================

type openAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// Complete calls the chat-completion endpoint with the full history.
func (p *openAIProvider) Complete(ctx context.Context, history []model.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.7,
		Messages:    convertHistory(history),
	})
	if err != nil {
		slog.Error("ai: completion failed",
			"model", p.model,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("ai: empty completion response", "model", p.model)
		return "", &api.Error{
			Code:    api.CodeAIProviderError,
			Message: "AI provider returned an empty response",
		}
	}

	slog.Debug("ai: completion succeeded",
		"model", p.model,
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.Choices[0].Message.Content, nil
}

func convertHistory(history []model.Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	converted = append(converted, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return converted
}

// classify maps a provider failure into the shared taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &api.Error{
			Code:    api.CodeTimeout,
			Message: "Request timed out. Please try again.",
		}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &api.Error{
			Code:    api.CodeAIProviderError,
			Message: "AI provider error",
			Status:  apiErr.HTTPStatusCode,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.As(err, new(*net.OpError)) {
		return &api.Error{
			Code:    api.CodeNetworkError,
			Message: "Unable to connect to AI service. Please check your connection.",
		}
	}

	return &api.Error{
		Code:    api.CodeAIError,
		Message: "Unable to generate response. Please try again.",
	}
}

// =============================================================================
// MOCK PROVIDER
// =============================================================================

// MockProvider answers every completion with a fixed reply.
type MockProvider struct{}

// Complete implements Provider.
func (MockProvider) Complete(ctx context.Context, history []model.Message) (string, error) {
	return MockReply, nil
}
