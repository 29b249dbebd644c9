// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// Theme holds all the styled components for the application.
type Theme struct {
	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	StatusOK    lipgloss.Style
	StatusWarn  lipgloss.Style
	StatusBad   lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarCurrent  lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	MessageBody    lipgloss.Style
	PendingMark    lipgloss.Style
	FailedMark     lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	EditBadge        lipgloss.Style
	CharCount        lipgloss.Style
	CharCountDanger  lipgloss.Style

	// ==========================================================================
	// BANNERS AND STATUS BAR
	// ==========================================================================

	ErrorBanner  lipgloss.Style
	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme creates the theme for the given config theme name. Colors are
// adaptive; "light" forces the light variants by flipping the dark
// background assumption.
func NewTheme(name string) *Theme {
	if name == "light" {
		lipgloss.SetHasDarkBackground(false)
	}

	t := &Theme{}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Border).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Lavender)
	t.StatusOK = lipgloss.NewStyle().Foreground(Green)
	t.StatusWarn = lipgloss.NewStyle().Foreground(Yellow)
	t.StatusBad = lipgloss.NewStyle().Foreground(Red).Bold(true)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Border).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().Bold(true).Foreground(TextMuted)
	t.SidebarItem = lipgloss.NewStyle().Foreground(TextPrimary)
	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)
	t.SidebarCurrent = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Lavender)
	t.MessageBody = lipgloss.NewStyle().Foreground(TextPrimary)
	t.PendingMark = lipgloss.NewStyle().Foreground(TextFaint).Italic(true)
	t.FailedMark = lipgloss.NewStyle().Foreground(Red)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Border).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Lavender).Bold(true)
	t.EditBadge = lipgloss.NewStyle().
		Foreground(Yellow).
		Bold(true)
	t.CharCount = lipgloss.NewStyle().Foreground(TextFaint)
	t.CharCountDanger = lipgloss.NewStyle().Foreground(Red).Bold(true)

	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(Red).
		Background(Surface).
		Bold(true).
		Padding(0, 1)
	t.Spinner = lipgloss.NewStyle().Foreground(Cyan)
	t.ThinkingText = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.StatusBar = lipgloss.NewStyle().Foreground(TextMuted)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextFaint)
}

// SetSize updates the theme's layout dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
