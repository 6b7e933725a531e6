package cli

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habitchain/internal/report"
)

// StatsCmd prints the stats overview.
type StatsCmd struct {
	JSON bool `help:"Output the raw numbers as JSON."`
	Raw  bool `help:"Print markdown without terminal styling."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	stats := ctx.Tracker.Stats(ctx.Ctx)
	if c.JSON {
		out, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		ctx.printf("%s\n", out)
		return nil
	}

	summaries, err := ctx.Tracker.Summaries(ctx.Ctx)
	if err != nil {
		return err
	}
	md := report.Markdown(report.Report{
		Stats:     stats,
		Habits:    summaries,
		Badges:    ctx.Tracker.Achievements(ctx.Ctx),
		Generated: ctx.Cal.Key(ctx.Tracker.Today()),
	})

	if c.Raw {
		ctx.printf("%s", md)
		return nil
	}
	ctx.printf("%s\n", report.Render(md))
	return nil
}

