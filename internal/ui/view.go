// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/skiff/internal/model"
	"github.com/morganforge/skiff/internal/ui/components"
	"github.com/morganforge/skiff/internal/ui/styles"
	"github.com/morganforge/skiff/internal/util"
)

// View renders the full frame.
func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}

	header := components.Header{
		Title:  m.currentTitle(),
		Status: m.snap.Status,
		Width:  m.width,
	}.Render(m.theme)

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderSidebar(),
		m.renderMain(),
	)

	bar := components.StatusBar{
		Shortcuts: m.shortcuts(),
		Width:     m.width,
	}.Render(m.theme)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, bar)
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m *Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n\n")

	switch {
	case m.snap.ListLoading:
		b.WriteString(m.theme.SidebarItem.Render("loading..."))
	case len(m.snap.Conversations) == 0:
		b.WriteString(m.theme.SidebarItem.Render("none yet (ctrl+n)"))
	default:
		for i, conv := range m.snap.Conversations {
			title := util.TruncateRunes(conv.Title, sidebarWidth-6)
			marker := "  "
			if m.snap.Current != nil && conv.ID == m.snap.Current.ID {
				marker = m.theme.SidebarCurrent.Render("> ")
			}
			line := marker + title
			if m.focus == focusSidebar && i == m.sidebarIndex {
				line = m.theme.SidebarSelected.Render(line)
			} else {
				line = m.theme.SidebarItem.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	height := m.height - 4
	if height < 3 {
		height = 3
	}
	return m.theme.Sidebar.Width(sidebarWidth).Height(height).Render(b.String())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders the message list for the viewport.
func (m *Model) renderTranscript() string {
	if m.snap.Current == nil {
		return m.theme.MessageBody.Render(
			"No conversation selected.\n\nPress ctrl+n to start one, or tab to pick from the sidebar.")
	}
	if len(m.snap.Messages) == 0 && !m.snap.Loading {
		return m.theme.MessageBody.Render("Send a message to get started.")
	}

	width := m.viewport.Width - 2
	if width < 10 {
		width = 10
	}
	body := m.theme.MessageBody.Width(width)

	var b strings.Builder
	for i, msg := range m.snap.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg, body))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderMessage(msg model.Message, body lipgloss.Style) string {
	var label string
	if msg.Role == model.RoleUser {
		label = m.theme.UserLabel.Render("you")
	} else {
		label = m.theme.AssistantLabel.Render("skiff")
	}

	if m.snap.Editing != nil && m.snap.Editing.MessageID == msg.ID {
		label += " " + m.theme.EditBadge.Render("[editing]")
	}

	if failure, ok := m.snap.Failed[msg.ID]; ok {
		label += " " + m.theme.FailedMark.Render(fmt.Sprintf(
			"%s %s (ctrl+r to retry)", styles.StatusIndicators.Failed, failure.Message))
	} else if model.IsPendingID(msg.ID) {
		label += " " + m.theme.PendingMark.Render(styles.StatusIndicators.Pending+" sending")
	}

	return label + "\n" + body.Render(msg.Content)
}

// =============================================================================
// MAIN PANE
// =============================================================================

func (m *Model) renderMain() string {
	var rows []string
	rows = append(rows, m.viewport.View())

	if status := m.statusLine(); status != "" {
		rows = append(rows, status)
	} else {
		rows = append(rows, "")
	}

	rows = append(rows, m.renderInput())
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// statusLine renders the spinner or the error banner, never both. The
// banner wins: an error means the last operation already settled.
func (m *Model) statusLine() string {
	if m.snap.LastError != "" {
		return m.theme.ErrorBanner.Render(
			styles.StatusIndicators.Failed + " " + m.snap.LastError + "  (esc to dismiss)")
	}
	return m.spin.View(m.theme)
}

func (m *Model) renderInput() string {
	prompt := m.theme.InputPrompt.Render("> ")
	if m.snap.Editing != nil {
		prompt = m.theme.EditBadge.Render("edit> ")
	}

	count := util.RuneLen(m.input.Value())
	counter := fmt.Sprintf("%d/%d", count, maxInputRunes)
	if count > maxInputRunes-100 {
		counter = m.theme.CharCountDanger.Render(counter)
	} else {
		counter = m.theme.CharCount.Render(counter)
	}

	width := m.width - sidebarWidth - 1
	if width < 20 {
		width = 20
	}
	return m.theme.InputContainer.Width(width).Render(
		prompt + m.input.View() + " " + counter)
}

// =============================================================================
// SHORTCUTS
// =============================================================================

// shortcuts returns the key hints for the current state.
func (m *Model) shortcuts() []components.Shortcut {
	if m.snap.Editing != nil {
		return []components.Shortcut{
			{Key: "enter", Desc: "resend"},
			{Key: "esc", Desc: "cancel edit"},
			{Key: "ctrl+c", Desc: "quit"},
		}
	}
	if m.focus == focusSidebar {
		return []components.Shortcut{
			{Key: "j/k", Desc: "move"},
			{Key: "enter", Desc: "open"},
			{Key: "ctrl+d", Desc: "delete"},
			{Key: "tab", Desc: "compose"},
			{Key: "ctrl+c", Desc: "quit"},
		}
	}
	hints := []components.Shortcut{
		{Key: "enter", Desc: "send"},
		{Key: "tab", Desc: "conversations"},
		{Key: "ctrl+n", Desc: "new"},
		{Key: "ctrl+e", Desc: "edit last"},
	}
	if _, ok := m.lastFailedUserMessage(); ok {
		hints = append(hints, components.Shortcut{Key: "ctrl+r", Desc: "retry"})
	}
	hints = append(hints, components.Shortcut{Key: "ctrl+c", Desc: "quit"})
	return hints
}
