// Package tui provides the interactive chat interface.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"repochat/internal/rag"
)

// Run starts the chat TUI against the given answer orchestrator and
// blocks until the user exits.
func Run(answerer *rag.Answerer) error {
	p := tea.NewProgram(newChatModel(answerer), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
