// Package tui is an interactive browser for layout trees.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/tiletree/internal/config"
	"github.com/1broseidon/tiletree/internal/session"
)

// Run starts the browser over trees and blocks until the user quits.
// backend labels the status bar (for example "daemon" or "in-process").
func Run(trees session.Service, cfg *config.Config, backend string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(trees, cfg, backend), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
