package ui

import "github.com/charmbracelet/lipgloss"

var (
	docStyle       = lipgloss.NewStyle().Margin(1, 2)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	checkedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	directoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	buttonStyle    = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	filterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)
