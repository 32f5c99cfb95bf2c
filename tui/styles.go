package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Header  lipgloss.Style
	Hint    lipgloss.Style
	Avatar  lipgloss.Style
	Name    lipgloss.Style
	Own     lipgloss.Style
	Partner lipgloss.Style
	Typing  lipgloss.Style
	Alert   lipgloss.Style
	Status  lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4A6CF7")).Padding(0, 1),
		Hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Italic(true),
		Avatar:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
		Name:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		Own:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4A6CF7")).Padding(0, 1),
		Partner: lipgloss.NewStyle().Foreground(lipgloss.Color("#111827")).Background(lipgloss.Color("#E5E7EB")).Padding(0, 1),
		Typing:  lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Italic(true),
		Alert:   lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Padding(1, 2),
	}
}
