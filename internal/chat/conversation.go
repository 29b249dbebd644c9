// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/morganforge/skiff/internal/api"
	"github.com/morganforge/skiff/internal/model"
)

// =============================================================================
// STARTUP
// =============================================================================

// Initialize probes backend reachability, loads the conversation list,
// and resolves an externally supplied conversation id (deep link). When
// the backend is unreachable it enters offline status and stops. When
// the deep-linked id is unknown it signals the empty route.
func (c *Controller) Initialize(ctx context.Context, deepLinkID string) error {
	c.mu.Lock()
	c.listLoading = true
	c.status = StatusChecking
	generation := c.generation
	c.mu.Unlock()

	if err := c.svc.CheckHealth(ctx); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.stale(generation) {
			return nil
		}
		c.status = StatusOffline
		c.lastError = startupError(err)
		c.listLoading = false
		return err
	}

	conversations, err := c.svc.ListConversations(ctx)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.stale(generation) {
			return nil
		}
		c.status = StatusOffline
		c.lastError = startupError(err)
		c.listLoading = false
		return err
	}

	c.mu.Lock()
	if c.stale(generation) {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusOnline
	c.conversations = conversations

	if deepLinkID == "" {
		c.setCurrent(nil)
		c.messages = nil
		c.listLoading = false
		c.mu.Unlock()
		return nil
	}

	conv, known := c.findConversation(deepLinkID)
	if !known {
		c.listLoading = false
		c.mu.Unlock()
		c.nav.Navigate("")
		return nil
	}

	c.setCurrent(&conv)
	generation = c.generation
	c.mu.Unlock()

	detail, err := c.svc.GetConversation(ctx, conv.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.listLoading = false
	if c.stale(generation) {
		return nil
	}
	if err != nil {
		c.status = StatusOffline
		c.lastError = startupError(err)
		return err
	}
	c.messages = detail.Messages
	return nil
}

// startupError maps a startup failure to the banner text, preferring
// the classified message.
func startupError(err error) string {
	if msg := api.ErrorMessage(err); msg != "" {
		return msg
	}
	return "Failed to connect to backend server"
}

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// StartNewConversation abandons the current conversation (deleting it
// if it never received a message), creates a fresh one, selects it, and
// signals navigation to it.
func (c *Controller) StartNewConversation(ctx context.Context) error {
	c.mu.Lock()
	c.lastError = ""
	var abandoned *model.Conversation
	if c.current != nil {
		cur := *c.current
		abandoned = &cur
	}
	c.mu.Unlock()

	if abandoned != nil {
		c.deleteIfEmpty(ctx, *abandoned)
	}

	conv, err := c.svc.CreateConversation(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastError = "Failed to create conversation"
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.conversations = append([]model.Conversation{conv}, c.conversations...)
	c.setCurrent(&conv)
	c.messages = nil
	c.failed = make(map[string]model.SendFailure)
	c.editing = nil
	c.mu.Unlock()

	c.nav.Navigate(conv.ID)
	return nil
}

// SelectConversation abandons the current conversation (empty-cleanup
// included) and signals navigation to the target. Loading of the new
// conversation's messages happens in the navigation synchronizer, so
// user-initiated selection and external navigation share one path.
func (c *Controller) SelectConversation(ctx context.Context, id string) {
	c.mu.Lock()
	var abandoned *model.Conversation
	if c.current != nil && c.current.ID != id {
		cur := *c.current
		abandoned = &cur
	}
	c.mu.Unlock()

	if abandoned != nil {
		c.deleteIfEmpty(ctx, *abandoned)
	}

	c.nav.Navigate(id)
}

// DeleteConversation removes a conversation from the store and the
// list. Deleting the selected conversation clears the selection and
// signals the empty route. A conversation already gone upstream counts
// as deleted.
func (c *Controller) DeleteConversation(ctx context.Context, id string) error {
	c.mu.Lock()
	c.lastError = ""
	c.mu.Unlock()

	if err := c.svc.DeleteConversation(ctx, id); err != nil && api.ErrorCode(err) != api.CodeNotFound {
		c.mu.Lock()
		c.lastError = "Failed to delete conversation"
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.removeConversation(id)
	wasCurrent := c.current != nil && c.current.ID == id
	if wasCurrent {
		c.setCurrent(nil)
		c.messages = nil
		c.failed = make(map[string]model.SendFailure)
		c.editing = nil
	}
	c.mu.Unlock()

	if wasCurrent {
		c.nav.Navigate("")
	}
	return nil
}

// deleteIfEmpty silently removes a conversation that has no messages.
// Cleanup is best-effort: delete failures are swallowed, and a failed
// message fetch preserves the conversation rather than risking deletion
// of one that merely could not be read.
func (c *Controller) deleteIfEmpty(ctx context.Context, conv model.Conversation) {
	c.mu.Lock()
	isCurrent := c.current != nil && c.current.ID == conv.ID
	count := len(c.messages)
	c.mu.Unlock()

	if !isCurrent {
		detail, err := c.svc.GetConversation(ctx, conv.ID)
		if err != nil {
			// Assume non-empty on fetch failure.
			return
		}
		count = len(detail.Messages)
	}
	if count > 0 {
		return
	}

	if err := c.svc.DeleteConversation(ctx, conv.ID); err != nil {
		return
	}
	c.mu.Lock()
	c.removeConversation(conv.ID)
	c.mu.Unlock()
}

// =============================================================================
// NAVIGATION HOOKS
// =============================================================================

// ActivateConversation makes a known conversation current and loads its
// messages. The message view is cleared before the fetch; a selection
// change racing the fetch wins, and the fetch's result is discarded.
// Called by the navigation synchronizer, never directly by input
// handlers.
func (c *Controller) ActivateConversation(ctx context.Context, id string) error {
	c.mu.Lock()
	conv, known := c.findConversation(id)
	if !known {
		c.mu.Unlock()
		return nil
	}
	c.messages = nil
	c.setCurrent(&conv)
	generation := c.generation
	c.mu.Unlock()

	detail, err := c.svc.GetConversation(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale(generation) {
		return nil
	}
	if err != nil {
		c.lastError = "Failed to load messages"
		return err
	}
	c.messages = detail.Messages
	return nil
}

// ClearSelection drops the current conversation and its message view.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCurrent(nil)
	c.messages = nil
}
