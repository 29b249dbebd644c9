// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/skiff/internal/model"
)

// Update handles all Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, m.refresh()

	case routeMsg:
		id := msg.id
		return m, tea.Batch(
			m.do(func(ctx context.Context) {
				m.sync.Apply(ctx, id)
			}),
			m.router.wait(),
		)

	case refreshMsg:
		return m, m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	mainWidth := width - sidebarWidth - 1
	if mainWidth < 20 {
		mainWidth = 20
	}
	// Header, spinner/banner row, input, and shortcut bar share the
	// vertical budget with the transcript.
	mainHeight := height - 7
	if mainHeight < 3 {
		mainHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(mainWidth, mainHeight)
		m.ready = true
	} else {
		m.viewport.Width = mainWidth
		m.viewport.Height = mainHeight
	}
	m.input.Width = mainWidth - 8
}

// handleKey dispatches keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit

	case "tab":
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil

	case "ctrl+n":
		return m, m.do(func(ctx context.Context) {
			m.ctrl.StartNewConversation(ctx)
		})

	case "ctrl+r":
		if id, ok := m.lastFailedUserMessage(); ok && !m.snap.Loading {
			return m, m.do(func(ctx context.Context) {
				m.ctrl.RetryMessage(ctx, id)
			})
		}
		return m, nil

	case "ctrl+e":
		return m, m.startEditingLastUserMessage()

	case "esc":
		return m.handleEscape()

	case "enter":
		if m.focus == focusSidebar {
			return m, m.selectSidebarConversation()
		}
		return m, m.submit()

	case "up", "k":
		if m.focus == focusSidebar {
			if m.sidebarIndex > 0 {
				m.sidebarIndex--
			}
			return m, nil
		}

	case "down", "j":
		if m.focus == focusSidebar {
			if m.sidebarIndex < len(m.snap.Conversations)-1 {
				m.sidebarIndex++
			}
			return m, nil
		}

	case "ctrl+d":
		if m.focus == focusSidebar {
			if conv, ok := m.sidebarSelection(); ok {
				id := conv.ID
				return m, m.do(func(ctx context.Context) {
					m.ctrl.DeleteConversation(ctx, id)
				})
			}
			return m, nil
		}
	}

	return m.updateFocused(msg)
}

// submit sends or edits depending on the active edit session. A send in
// flight makes enter a no-op; the composer keeps its content.
func (m *Model) submit() tea.Cmd {
	if m.snap.Loading {
		return nil
	}
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return nil
	}

	editing := m.snap.Editing
	m.input.SetValue("")
	if editing != nil {
		id := editing.MessageID
		return m.do(func(ctx context.Context) {
			m.ctrl.SubmitEdit(ctx, id, content)
		})
	}
	return m.do(func(ctx context.Context) {
		m.ctrl.SendMessage(ctx, content, "")
	})
}

// handleEscape unwinds the innermost transient state: edit session,
// then error banner, then sidebar focus.
func (m *Model) handleEscape() (tea.Model, tea.Cmd) {
	switch {
	case m.snap.Editing != nil:
		m.input.SetValue("")
		m.ctrl.CancelEditing()
		return m, m.refresh()
	case m.snap.LastError != "":
		m.ctrl.ClearError()
		return m, m.refresh()
	case m.focus == focusSidebar:
		m.focus = focusInput
		m.input.Focus()
	}
	return m, nil
}

// selectSidebarConversation routes to the highlighted conversation.
func (m *Model) selectSidebarConversation() tea.Cmd {
	conv, ok := m.sidebarSelection()
	if !ok {
		return nil
	}
	id := conv.ID
	m.focus = focusInput
	m.input.Focus()
	return m.do(func(ctx context.Context) {
		m.ctrl.SelectConversation(ctx, id)
	})
}

func (m *Model) sidebarSelection() (model.Conversation, bool) {
	if m.sidebarIndex < 0 || m.sidebarIndex >= len(m.snap.Conversations) {
		return model.Conversation{}, false
	}
	return m.snap.Conversations[m.sidebarIndex], true
}

// lastFailedUserMessage finds the most recent user message with a
// failed send on record.
func (m *Model) lastFailedUserMessage() (string, bool) {
	for i := len(m.snap.Messages) - 1; i >= 0; i-- {
		msg := m.snap.Messages[i]
		if msg.Role != model.RoleUser {
			continue
		}
		if _, failed := m.snap.Failed[msg.ID]; failed {
			return msg.ID, true
		}
	}
	return "", false
}

// startEditingLastUserMessage opens an edit session on the newest user
// message and preloads the composer with its content.
func (m *Model) startEditingLastUserMessage() tea.Cmd {
	if m.snap.Loading {
		return nil
	}
	for i := len(m.snap.Messages) - 1; i >= 0; i-- {
		msg := m.snap.Messages[i]
		if msg.Role != model.RoleUser {
			continue
		}
		id := msg.ID
		if err := m.ctrl.StartEditing(id); err != nil {
			return nil
		}
		m.focus = focusInput
		m.input.Focus()
		m.input.SetValue(msg.Content)
		m.input.CursorEnd()
		return m.refresh()
	}
	return nil
}

// updateFocused forwards unhandled messages to the focused component.
func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}
