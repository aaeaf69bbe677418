package ui

import "github.com/charmbracelet/lipgloss"

// Styles lipgloss styles shared by the chatctl commands
var Styles = struct {
	Bold       lipgloss.Style
	SuccessBox lipgloss.Style
	ErrorBox   lipgloss.Style
}{
	Bold:       lipgloss.NewStyle().Bold(true),
	SuccessBox: box("42"),
	ErrorBox:   box("196"),
}

var (
	rootStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true) // Cyan
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))           // Gray
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))           // Yellow
)

func box(border string) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1).
		Width(60)
}
