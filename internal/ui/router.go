// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/skiff/internal/chat"
	"github.com/morganforge/skiff/internal/nav"
)

// =============================================================================
// IN-PROCESS ROUTER
// =============================================================================

// Router is the in-process route bus. The controller publishes route
// changes into it; the Bubble Tea program consumes them and feeds the
// navigation synchronizer.
type Router struct {
	ch chan string
}

// NewRouter creates a route bus.
func NewRouter() *Router {
	// Buffered so the controller never blocks on the UI. A burst that
	// overflows the buffer drops older intents; only the latest route
	// matters.
	return &Router{ch: make(chan string, 16)}
}

// Navigate implements chat.Navigator.
func (r *Router) Navigate(conversationID string) {
	for {
		select {
		case r.ch <- conversationID:
			return
		default:
			select {
			case <-r.ch:
			default:
			}
		}
	}
}

// wait returns a command that delivers the next route change.
func (r *Router) wait() tea.Cmd {
	return func() tea.Msg {
		return routeMsg{id: <-r.ch}
	}
}

// Wire builds the controller/synchronizer/router triple for the TUI.
// The router is both the controller's navigator and the synchronizer's
// redirect sink, matching the route-then-apply split of the
// navigation model.
func Wire(svc chat.Service) (*chat.Controller, *nav.Synchronizer, *Router) {
	router := NewRouter()
	ctrl := chat.NewController(svc).WithNavigator(router)
	sync := nav.NewSynchronizer(ctrl, router)
	return ctrl, sync, router
}
