// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Valid reports whether the role is one the system understands.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
// Messages are immutable once persisted; the backend owns them.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// tempIDPrefix is the reserved namespace for locally generated message IDs.
// Server-issued IDs are bare UUIDs and never carry this prefix.
const tempIDPrefix = "temp-"

// NewPendingMessage creates an optimistic local user message with a
// temporary ID. It exists only until the backend response replaces it or
// marks it failed; it is never persisted.
func NewPendingMessage(content string) Message {
	return Message{
		ID:        tempIDPrefix + uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// IsPendingID reports whether id belongs to the local temporary namespace.
func IsPendingID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// =============================================================================
// SEND FAILURE RECORD
// =============================================================================

// SendFailure records why a message's most recent send attempt failed.
// A message ID maps to a SendFailure if and only if its latest attempt did
// not produce a persisted assistant reply.
type SendFailure struct {
	Message string
	Code    string
}
