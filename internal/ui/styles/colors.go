// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the skiff TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// CORE PALETTE
// =============================================================================

var (
	Lavender = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	Cyan     = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	Green    = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"}
	Yellow   = lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#FACC15"}
	Red      = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}

	TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"}
	TextMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	TextFaint   = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#4B5563"}

	Surface     = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"}
	Border      = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}
	SelectionBg = lipgloss.AdaptiveColor{Light: "#BFDBFE", Dark: "#1E3A5F"}
)

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicatorSet contains shape indicators for status states. The
// symbols carry the state on their own so color is never the only cue.
type StatusIndicatorSet struct {
	Online   string
	Offline  string
	Checking string
	Failed   string
	Pending  string
}

// StatusIndicators provides ASCII-only indicators alongside colors.
var StatusIndicators = StatusIndicatorSet{
	Online:   "[*]",
	Offline:  "[X]",
	Checking: "[ ]",
	Failed:   "[!]",
	Pending:  "...",
}
