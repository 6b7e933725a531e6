package cli

// StreakCmd shows one habit's streak, or every habit's plus the daily streak.
type StreakCmd struct {
	Habit string `arg:"" optional:"" help:"Habit id or name."`
}

func (c *StreakCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	if c.Habit != "" {
		h, err := ctx.ResolveHabit(c.Habit)
		if err != nil {
			return err
		}
		st := ctx.Tracker.CurrentAndLongestStreak(ctx.Ctx, h.ID)
		ctx.printf("%s %s: %d day streak (longest %d)\n", h.Icon, h.Name, st.Current, st.Longest)
		return nil
	}

	summaries, err := ctx.Tracker.Summaries(ctx.Ctx)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		ctx.printf("%s %-24s %4d current %4d longest\n", s.Habit.Icon, s.Habit.Name, s.Streak.Current, s.Streak.Longest)
	}

	stats := ctx.Tracker.Stats(ctx.Ctx)
	ctx.printf("\nDaily streak: %d\nBest streak:  %d\n", stats.GlobalStreak, stats.BestStreak)
	return nil
}
