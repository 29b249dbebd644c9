// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/skiff/internal/chat"
	"github.com/morganforge/skiff/internal/ui/styles"
	"github.com/morganforge/skiff/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the top bar: application name, current conversation title,
// and backend connection status.
type Header struct {
	Title  string
	Status chat.Status
	Width  int
}

// statusLabel maps a connection status to its indicator and label.
func statusLabel(s chat.Status) string {
	switch s {
	case chat.StatusOnline:
		return styles.StatusIndicators.Online + " online"
	case chat.StatusOffline:
		return styles.StatusIndicators.Offline + " offline"
	default:
		return styles.StatusIndicators.Checking + " connecting"
	}
}

// Render draws the header at the configured width.
func (h Header) Render(theme *styles.Theme) string {
	brand := theme.HeaderTitle.Render("skiff")

	title := h.Title
	if title == "" {
		title = "no conversation selected"
	}
	title = util.TruncateRunes(title, 48)

	var status string
	switch h.Status {
	case chat.StatusOnline:
		status = theme.StatusOK.Render(statusLabel(h.Status))
	case chat.StatusOffline:
		status = theme.StatusBad.Render(statusLabel(h.Status))
	default:
		status = theme.StatusWarn.Render(statusLabel(h.Status))
	}

	left := brand + "  " + title
	gap := h.Width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	return theme.Header.Width(h.Width).Render(left + strings.Repeat(" ", gap) + status)
}
