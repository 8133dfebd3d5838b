package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// styled reports whether stdout is a terminal. Piped output stays plain.
var styled = term.IsTerminal(int(os.Stdout.Fd()))

func render(style lipgloss.Style, s string) string {
	if !styled {
		return s
	}
	return style.Render(s)
}
