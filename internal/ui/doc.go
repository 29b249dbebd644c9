// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package ui provides the terminal chat interface for skiff.

The package implements a Bubble Tea program over the conversation
controller in internal/chat. The program never mutates conversation
state directly: every key binding maps to a controller operation run in
a tea.Cmd, and the view renders the controller's latest Snapshot.

# Key Components

## Model (model.go)

The Bubble Tea model: viewport for the transcript, text input for
composition, conversation sidebar, and the most recent controller
snapshot.

## Router (router.go)

An in-process chat.Navigator. Route changes emitted by the controller
are delivered to the update loop as messages and replayed through the
navigation synchronizer, so selection follows routes exactly as it
would behind a URL bar.

## Update Loop (update.go)

Key handling and command dispatch. Submission is unavailable while a
send is in flight; the input line stays focused but enter does nothing
until the controller settles.

## View Rendering (view.go)

Header with connection status, sidebar, transcript with pending and
failed markers, error banner, input area with a character budget, and
a shortcut bar.

# Usage

	ctrl, sync, router := ui.Wire(client)
	p := tea.NewProgram(ui.New(ui.Options{
		Controller:   ctrl,
		Synchronizer: sync,
		Router:       router,
		Theme:        cfg.UI.Theme,
	}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package ui
