package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitchain/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	return ctx.WithLock(func() error {
		ctx.PerformAutomaticBackup()

		p := tea.NewProgram(tui.NewModel(ctx.Ctx, ctx.Tracker), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("tui exited with error: %w", err)
		}
		return nil
	})
}
