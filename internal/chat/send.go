// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/morganforge/skiff/internal/api"
	"github.com/morganforge/skiff/internal/model"
)

// =============================================================================
// SEND AND RETRY
// =============================================================================

// SendMessage sends content to the selected conversation. A fresh send
// (retryID empty) appends an optimistic pending message first; a retry
// reuses the failed message already in the sequence. On success the
// optimistic or failed message is replaced by the persisted pair; on
// failure the message stays visible with its error recorded against its
// id. The loading flag is cleared on every path.
func (c *Controller) SendMessage(ctx context.Context, content, retryID string) error {
	c.mu.Lock()
	if c.current == nil || c.loading {
		c.mu.Unlock()
		return nil
	}
	c.lastError = ""

	messageID := retryID
	if retryID == "" {
		pending := model.NewPendingMessage(content)
		c.messages = append(c.messages, pending)
		messageID = pending.ID
	}
	c.loading = true
	conversationID := c.current.ID
	generation := c.generation
	c.mu.Unlock()

	resp, err := c.svc.SendMessage(ctx, conversationID, content)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.stale(generation) {
		return nil
	}

	if err != nil {
		c.failed[messageID] = model.SendFailure{
			Message: sendError(err),
			Code:    api.ErrorCode(err),
		}
		c.lastError = sendError(err)
		return err
	}

	pair := []model.Message{resp.UserMessage, resp.AssistantMessage}
	if retryID == "" {
		// Fresh send: swap the optimistic message for the persisted pair.
		if idx := c.messageIndex(messageID); idx >= 0 {
			c.messages = append(c.messages[:idx], c.messages[idx+1:]...)
		}
		c.messages = append(c.messages, pair...)
	} else {
		// Retry: the new pair supersedes the failed message and
		// everything after it.
		if idx := c.messageIndex(retryID); idx >= 0 {
			c.messages = append(c.messages[:idx], pair...)
		} else {
			c.messages = append(c.messages, pair...)
		}
		delete(c.failed, retryID)
	}

	c.applyTitle(conversationID, resp.UpdatedTitle)
	return nil
}

// RetryMessage re-sends a previously failed user message. Absent or
// assistant-authored ids are ignored.
func (c *Controller) RetryMessage(ctx context.Context, messageID string) error {
	c.mu.Lock()
	idx := c.messageIndex(messageID)
	if idx < 0 || c.messages[idx].Role != model.RoleUser {
		c.mu.Unlock()
		return nil
	}
	content := c.messages[idx].Content
	c.mu.Unlock()

	return c.SendMessage(ctx, content, messageID)
}

// sendError maps a send failure to its banner/record text.
func sendError(err error) string {
	if msg := api.ErrorMessage(err); msg != "" {
		return msg
	}
	return "Something went wrong"
}

// applyTitle propagates a server-side title rewrite to the selected
// conversation and its list entry. Caller holds mu.
func (c *Controller) applyTitle(conversationID, title string) {
	if title == "" {
		return
	}
	if c.current != nil && c.current.ID == conversationID {
		c.current.Title = title
	}
	for i := range c.conversations {
		if c.conversations[i].ID == conversationID {
			c.conversations[i].Title = title
		}
	}
}

// =============================================================================
// EDITING
// =============================================================================

// StartEditing opens an edit session for a user message. Messages in a
// failed state are refused: retry and edit are mutually exclusive
// recovery paths.
func (c *Controller) StartEditing(messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.messageIndex(messageID)
	if idx < 0 {
		return nil
	}
	msg := c.messages[idx]
	if msg.Role != model.RoleUser {
		return ErrNotUserMessage
	}
	if _, isFailed := c.failed[messageID]; isFailed {
		return ErrEditFailedMessage
	}
	c.editing = &EditSession{MessageID: messageID, OriginalContent: msg.Content}
	return nil
}

// CancelEditing discards the edit session, if any.
func (c *Controller) CancelEditing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
}

// SubmitEdit truncates the sequence at the edited message and sends the
// new content as a fresh message: a changed message invalidates every
// reply that followed it. Failures surface on the global banner only;
// edits are re-submitted, not retried in place.
func (c *Controller) SubmitEdit(ctx context.Context, messageID, newContent string) error {
	c.mu.Lock()
	if c.current == nil || c.loading {
		c.mu.Unlock()
		return nil
	}
	c.lastError = ""

	idx := c.messageIndex(messageID)
	if idx < 0 {
		c.mu.Unlock()
		return nil
	}
	c.messages = c.messages[:idx]
	c.loading = true
	conversationID := c.current.ID
	generation := c.generation
	c.mu.Unlock()

	resp, err := c.svc.SendMessage(ctx, conversationID, newContent)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.stale(generation) {
		return nil
	}

	if err != nil {
		c.lastError = sendError(err)
		return err
	}

	c.messages = append(c.messages, resp.UserMessage, resp.AssistantMessage)
	c.editing = nil
	c.applyTitle(conversationID, resp.UpdatedTitle)
	return nil
}
