// Package tui holds the shared look of keycapgen's terminal views.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	ColorHeader    = lipgloss.Color("63")
	ColorLabel     = lipgloss.Color("245")
	ColorValue     = lipgloss.Color("252")
	ColorMuted     = lipgloss.Color("241")
	ColorHighlight = lipgloss.Color("212")
	ColorBorder    = lipgloss.Color("240")
)

// Shared styles.
var (
	TableHeaderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(ColorBorder).
				BorderBottom(true).
				Bold(true).
				Foreground(ColorHeader)

	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57")).
				Bold(false)

	TitleStyle = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	LabelStyle = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle = lipgloss.NewStyle().Foreground(ColorValue)
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	MarkStyle  = lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)

	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)
