// Package cliui renders browse listings and import summaries for the CLI.
package cliui

import "github.com/charmbracelet/lipgloss"

var (
	// ErrorStyle is the style for failed results.
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	// SuccessStyle is the style for successful results.
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))

	// DimStyle is the style for secondary text.
	DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	// BoldStyle is the style for bold text.
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// HeaderStyle is the style for section headers.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0099FF"))
)
