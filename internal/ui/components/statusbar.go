// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/morganforge/skiff/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Shortcut is a single key hint shown in the bottom bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom bar listing the available shortcuts. The set
// changes with the application state (editing, failed sends, sidebar focus).
type StatusBar struct {
	Shortcuts []Shortcut
	Width     int
}

// Render draws the shortcut bar. Hints that do not fit are dropped from
// the right.
func (b StatusBar) Render(theme *styles.Theme) string {
	var parts []string
	used := 0
	for _, s := range b.Shortcuts {
		part := theme.ShortcutKey.Render(s.Key) + " " + theme.ShortcutDesc.Render(s.Desc)
		width := len(s.Key) + len(s.Desc) + 4
		if b.Width > 0 && used+width > b.Width {
			break
		}
		used += width
		parts = append(parts, part)
	}
	return theme.StatusBar.Render(strings.Join(parts, "   "))
}
