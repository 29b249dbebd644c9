// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/morganforge/skiff/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// ConversationDetail is the response of GetConversation: the conversation
// record plus its messages in chronological order.
type ConversationDetail struct {
	Conversation model.Conversation `json:"chat"`
	Messages     []model.Message    `json:"messages"`
}

// SendMessageResponse is the response of SendMessage: the persisted user
// message, the generated assistant reply, and the conversation title when
// this send set it (first message only).
type SendMessageResponse struct {
	UserMessage      model.Message `json:"userMessage"`
	AssistantMessage model.Message `json:"assistantMessage"`
	UpdatedTitle     string        `json:"updatedTitle,omitempty"`
}

// sendMessageRequest is the request body for SendMessage.
type sendMessageRequest struct {
	Content string `json:"content"`
}

// decodeUserMessage parses the persisted user message a partial-failure
// error body carries. A malformed payload yields nil; the failure itself
// still surfaces.
func decodeUserMessage(raw json.RawMessage) *model.Message {
	var msg model.Message
	if err := json.Unmarshal(raw, &msg); err != nil || msg.ID == "" {
		return nil
	}
	return &msg
}

// =============================================================================
// STORE OPERATIONS
// =============================================================================

// CreateConversation creates a new conversation with the sentinel title.
func (c *Client) CreateConversation(ctx context.Context) (model.Conversation, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/chats", nil, c.timeout, c.maxRetries)
	if err != nil {
		return model.Conversation{}, err
	}
	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return model.Conversation{}, fmt.Errorf("failed to parse conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns all conversations, newest first.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/chats", nil, c.timeout, c.maxRetries)
	if err != nil {
		return nil, err
	}
	var convs []model.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, fmt.Errorf("failed to parse conversation list: %w", err)
	}
	return convs, nil
}

// GetConversation fetches a conversation and its message history.
// Unknown IDs surface as NOT_FOUND.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/chats/"+url.PathEscape(id), nil, c.timeout, c.maxRetries)
	if err != nil {
		return nil, err
	}
	var detail ConversationDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to parse conversation detail: %w", err)
	}
	return &detail, nil
}

// SendMessage appends a user message and waits for the assistant reply.
// It uses the longer send timeout because the backend waits on an upstream
// completion. On an AI failure after the user message persisted, the
// returned error carries the persisted user message (see Error.UserMessage).
func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*SendMessageResponse, error) {
	body := sendMessageRequest{Content: content}
	data, err := c.do(ctx, http.MethodPost, "/api/chats/"+url.PathEscape(conversationID)+"/messages", body, SendTimeout, c.maxRetries)
	if err != nil {
		return nil, err
	}
	var resp SendMessageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse send response: %w", err)
	}
	return &resp, nil
}

// DeleteConversation deletes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/chats/"+url.PathEscape(id), nil, c.timeout, c.maxRetries)
	return err
}

// CheckHealth probes backend reachability with a short timeout and no
// retries. Used once at startup to decide online/offline state.
func (c *Client) CheckHealth(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil, HealthTimeout, 0)
	return err
}
