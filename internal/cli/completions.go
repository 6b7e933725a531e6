package cli

import "fmt"

type CompletionsCmd struct {
	Clear CompletionsClearCmd `cmd:"" help:"Delete completions for one habit or all habits."`
}

type CompletionsClearCmd struct {
	Habit string `arg:"" optional:"" help:"Habit id or name. Omit to clear every habit."`
	Yes   bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *CompletionsClearCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	question := "Delete every completion of every habit?"
	var habitID int64
	if c.Habit != "" {
		h, err := ctx.ResolveHabit(c.Habit)
		if err != nil {
			return err
		}
		habitID = h.ID
		question = fmt.Sprintf("Delete every completion of %q?", h.Name)
	}

	if !c.Yes && !ctx.confirm(question) {
		ctx.printf("Clear cancelled.\n")
		return nil
	}

	return ctx.WithLock(func() error {
		ctx.PerformAutomaticBackup()
		if habitID != 0 {
			if err := ctx.Tracker.ClearHabitCompletions(ctx.Ctx, habitID); err != nil {
				return err
			}
		} else if err := ctx.Tracker.ClearCompletions(ctx.Ctx); err != nil {
			return err
		}
		ctx.printf("Completions cleared.\n")
		return nil
	})
}
