// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package nav reconciles externally driven route changes with
// conversational state.
package nav

import (
	"context"

	"github.com/morganforge/skiff/internal/chat"
)

// =============================================================================
// SYNCHRONIZER
// =============================================================================

// Controller is the slice of the state machine the synchronizer drives.
// *chat.Controller satisfies it.
type Controller interface {
	Snapshot() chat.Snapshot
	ActivateConversation(ctx context.Context, id string) error
	ClearSelection()
}

// Synchronizer applies route-change signals to the controller.
type Synchronizer struct {
	ctrl Controller
	nav  chat.Navigator
}

// NewSynchronizer creates a synchronizer over the controller. Unknown
// ids are redirected through nav to the empty route.
func NewSynchronizer(ctrl Controller, nav chat.Navigator) *Synchronizer {
	return &Synchronizer{ctrl: ctrl, nav: nav}
}

// Apply reconciles a changed conversation id with controller state. An
// empty id means the empty route. Staleness between competing Apply
// calls is resolved inside ActivateConversation: the newer activation
// bumps the controller's generation and the older fetch's result is
// discarded.
func (s *Synchronizer) Apply(ctx context.Context, id string) error {
	snap := s.ctrl.Snapshot()

	// Startup owns state until the initial load settles.
	if snap.ListLoading {
		return nil
	}

	if id == "" {
		if snap.Current != nil {
			s.ctrl.ClearSelection()
		}
		return nil
	}

	if snap.Current != nil && snap.Current.ID == id {
		return nil
	}

	for _, conv := range snap.Conversations {
		if conv.ID == id {
			return s.ctrl.ActivateConversation(ctx, id)
		}
	}

	// Unknown id: send the caller back to the empty route.
	s.nav.Navigate("")
	return nil
}
