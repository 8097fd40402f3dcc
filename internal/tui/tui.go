package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	if opts.Service == nil {
		return errors.New("tui: no service configured")
	}
	applyThemePreference()
	applyColorProfilePreference()

	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
