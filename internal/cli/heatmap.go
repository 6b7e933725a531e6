package cli

import (
	"github.com/julianstephens/habitchain/internal/heatmap"
)

// HeatmapCmd prints the last year of completions.
type HeatmapCmd struct {
	Habit string `arg:"" optional:"" help:"Habit id or name. Omit for all habits."`
}

func (c *HeatmapCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	if c.Habit != "" {
		h, err := ctx.ResolveHabit(c.Habit)
		if err != nil {
			return err
		}
		grid := ctx.Tracker.HabitHeatmap(ctx.Ctx, h.ID)
		ctx.printf("%s %s: %d days in the last year\n\n", h.Icon, h.Name, grid.ActiveDays())
		ctx.printf("%s\n", heatmap.RenderHabit(grid, h.Color))
		return nil
	}

	grid := ctx.Tracker.HeatmapGrid(ctx.Ctx)
	ctx.printf("%d completions on %d days in the last year\n\n", grid.Total(), grid.ActiveDays())
	ctx.printf("%s\n", heatmap.Render(grid))
	return nil
}
