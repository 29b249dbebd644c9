// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package nav reconciles externally driven route changes with
// conversational state.
//
// The synchronizer is the single entry point for "the selected
// conversation id changed" signals, whether they came from a user
// picking a conversation or from history-style navigation. It decides
// between three cases: the id is already current (no-op), the id names
// another known conversation (activate it and load its messages), or
// the id is unknown (redirect to the empty route). Reconciliation is
// suppressed while the initial load is still outstanding so startup
// and navigation cannot race each other.
package nav
