// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat owns all conversational state for the client.
package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/morganforge/skiff/internal/api"
	"github.com/morganforge/skiff/internal/model"
)

// =============================================================================
// STATUS AND ERRORS
// =============================================================================

// Status reports backend reachability as determined at startup.
type Status string

const (
	// StatusChecking is the initial state before the first health probe.
	StatusChecking Status = "checking"
	// StatusOnline means the backend answered the health probe.
	StatusOnline Status = "online"
	// StatusOffline means the backend was unreachable at startup.
	StatusOffline Status = "offline"
)

var (
	// ErrEditFailedMessage is returned when editing is requested on a
	// message whose send failed. Failed messages are recovered by retry
	// or truncation, never by in-place editing.
	ErrEditFailedMessage = errors.New("cannot edit a message that failed to send")

	// ErrNotUserMessage is returned when an edit targets an
	// assistant-authored message.
	ErrNotUserMessage = errors.New("only user messages can be edited")
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Service is the store contract the controller depends on. *api.Client
// satisfies it.
type Service interface {
	CreateConversation(ctx context.Context) (model.Conversation, error)
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*api.ConversationDetail, error)
	SendMessage(ctx context.Context, conversationID, content string) (*api.SendMessageResponse, error)
	DeleteConversation(ctx context.Context, id string) error
	CheckHealth(ctx context.Context) error
}

// Navigator receives route-change signals. An empty id means the empty
// route (no conversation selected).
type Navigator interface {
	Navigate(conversationID string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(conversationID string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(conversationID string) { f(conversationID) }

// =============================================================================
// EDIT SESSION AND SNAPSHOT
// =============================================================================

// EditSession holds the message currently being edited. At most one
// exists at a time.
type EditSession struct {
	MessageID       string
	OriginalContent string
}

// Snapshot is a consistent read view of controller state. Slices and
// maps are copies; mutating a snapshot never affects the controller.
type Snapshot struct {
	Conversations []model.Conversation
	Current       *model.Conversation
	Messages      []model.Message
	Loading       bool
	ListLoading   bool
	Status        Status
	LastError     string
	Failed        map[string]model.SendFailure
	Editing       *EditSession
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the single owner of conversational state. All mutation
// is serialized under mu; network calls happen with mu released, and
// every continuation compares the generation captured at suspension
// against the live counter before applying results.
type Controller struct {
	mu  sync.Mutex
	svc Service
	nav Navigator

	conversations []model.Conversation
	current       *model.Conversation
	messages      []model.Message
	loading       bool
	listLoading   bool
	status        Status
	lastError     string
	failed        map[string]model.SendFailure
	editing       *EditSession

	// generation increments on every selection change. Continuations
	// capture it before suspending and discard their result if it moved.
	generation uint64
}

// NewController creates a controller over the given store service.
func NewController(svc Service) *Controller {
	return &Controller{
		svc:         svc,
		nav:         NavigatorFunc(func(string) {}),
		status:      StatusChecking,
		listLoading: true,
		failed:      make(map[string]model.SendFailure),
	}
}

// WithNavigator sets the sink for route-change signals.
func (c *Controller) WithNavigator(nav Navigator) *Controller {
	c.nav = nav
	return c
}

// Snapshot returns a consistent copy of all controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Conversations: append([]model.Conversation(nil), c.conversations...),
		Messages:      append([]model.Message(nil), c.messages...),
		Loading:       c.loading,
		ListLoading:   c.listLoading,
		Status:        c.status,
		LastError:     c.lastError,
		Failed:        make(map[string]model.SendFailure, len(c.failed)),
	}
	if c.current != nil {
		cur := *c.current
		snap.Current = &cur
	}
	if c.editing != nil {
		edit := *c.editing
		snap.Editing = &edit
	}
	for id, failure := range c.failed {
		snap.Failed[id] = failure
	}
	return snap
}

// ClearError dismisses the global error banner.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = ""
}

// =============================================================================
// INTERNAL HELPERS (callers hold mu)
// =============================================================================

// setCurrent switches the selection and bumps the generation so any
// continuation captured before the switch discards its result.
func (c *Controller) setCurrent(conv *model.Conversation) {
	c.generation++
	if conv == nil {
		c.current = nil
		return
	}
	cur := *conv
	c.current = &cur
}

// findConversation returns a copy of the listed conversation, if known.
func (c *Controller) findConversation(id string) (model.Conversation, bool) {
	for _, conv := range c.conversations {
		if conv.ID == id {
			return conv, true
		}
	}
	return model.Conversation{}, false
}

// removeConversation drops a conversation from the list.
func (c *Controller) removeConversation(id string) {
	kept := c.conversations[:0]
	for _, conv := range c.conversations {
		if conv.ID != id {
			kept = append(kept, conv)
		}
	}
	c.conversations = kept
}

// messageIndex returns the position of a message, or -1.
func (c *Controller) messageIndex(id string) int {
	for i, msg := range c.messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

// stale reports whether a continuation's captured generation is no
// longer current.
func (c *Controller) stale(generation uint64) bool {
	return c.generation != generation
}
