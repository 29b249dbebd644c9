// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/morganforge/skiff/internal/util"
)

// DefaultTitle is the sentinel title given to a conversation at creation.
// It is rewritten exactly once, when the first user message arrives.
const DefaultTitle = "New Chat"

// TitleMaxRunes is the maximum length of a derived conversation title.
const TitleMaxRunes = 40

// Conversation holds the identity of a chat thread. Messages belong to the
// backend store; a Conversation only references them.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasDefaultTitle reports whether the conversation still carries the
// creation-time sentinel title.
func (c Conversation) HasDefaultTitle() bool {
	return c.Title == DefaultTitle
}

// TitleFromContent derives a conversation title from the first user
// message: single line, trimmed, truncated to TitleMaxRunes characters.
func TitleFromContent(content string) string {
	content = strings.TrimSpace(util.CollapseWhitespace(content))
	return util.TruncateRunesNoEllipsis(content, TitleMaxRunes)
}
