// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/skiff/internal/chat"
	"github.com/morganforge/skiff/internal/nav"
	"github.com/morganforge/skiff/internal/ui/components"
	"github.com/morganforge/skiff/internal/ui/styles"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================

const (
	sidebarWidth = 28
	// maxInputRunes mirrors the backend's message limit so the composer
	// warns before the server rejects.
	maxInputRunes = 2000
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// routeMsg delivers a route change published by the controller.
type routeMsg struct {
	id string
}

// refreshMsg signals that controller state may have changed and the
// view should re-snapshot.
type refreshMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

// focusArea identifies which pane receives key input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// Options configures the TUI model.
type Options struct {
	Controller   *chat.Controller
	Synchronizer *nav.Synchronizer
	Router       *Router
	Theme        string
	// DeepLink selects a conversation at startup, empty for none.
	DeepLink string
}

// Model is the Bubble Tea model for the skiff chat client.
type Model struct {
	ctrl   *chat.Controller
	sync   *nav.Synchronizer
	router *Router

	ctx    context.Context
	cancel context.CancelFunc

	theme *styles.Theme

	viewport viewport.Model
	input    textinput.Model
	spin     components.Spinner

	snap     chat.Snapshot
	deepLink string

	focus        focusArea
	sidebarIndex int

	width  int
	height int
	ready  bool
}

// New creates the TUI model. The context governs every controller call
// the program issues; Quit cancels it, which abandons in-flight sends
// (the controller discards their continuations as stale).
func New(opts Options) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = maxInputRunes
	// The view renders its own prompt so it can swap in the edit badge.
	input.Prompt = ""
	input.Focus()

	return &Model{
		ctrl:     opts.Controller,
		sync:     opts.Synchronizer,
		router:   opts.Router,
		ctx:      ctx,
		cancel:   cancel,
		theme:    styles.NewTheme(opts.Theme),
		input:    input,
		spin:     components.NewThinkingSpinner(),
		deepLink: opts.DeepLink,
		snap:     opts.Controller.Snapshot(),
	}
}

// Init starts the route listener and the initial load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.router.wait(),
		m.do(func(ctx context.Context) {
			m.ctrl.Initialize(ctx, m.deepLink)
		}),
	)
}

// do runs a controller operation off the update loop and requests a
// re-snapshot when it settles. Operation errors surface through the
// snapshot's error banner, not through the command.
func (m *Model) do(fn func(ctx context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		fn(ctx)
		return refreshMsg{}
	}
}

// refresh pulls the latest snapshot and reconciles derived view state.
func (m *Model) refresh() tea.Cmd {
	atBottom := m.viewport.AtBottom()
	m.snap = m.ctrl.Snapshot()

	if n := len(m.snap.Conversations); m.sidebarIndex >= n {
		m.sidebarIndex = n - 1
	}
	if m.sidebarIndex < 0 {
		m.sidebarIndex = 0
	}

	var cmd tea.Cmd
	if m.snap.Loading && !m.spin.Active() {
		cmd = m.spin.Start()
	} else if !m.snap.Loading {
		m.spin.Stop()
	}

	if m.ready {
		m.viewport.SetContent(m.renderTranscript())
		if atBottom || m.snap.Loading {
			m.viewport.GotoBottom()
		}
	}
	return cmd
}

// currentTitle returns the selected conversation's title, empty when
// nothing is selected.
func (m *Model) currentTitle() string {
	if m.snap.Current == nil {
		return ""
	}
	return m.snap.Current.Title
}
