package cli

import (
	"fmt"

	"github.com/julianstephens/habitchain/internal/tracker"
)

// DoneCmd toggles a habit's completion for a day.
type DoneCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Date  string `help:"Day to toggle (YYYY-MM-DD, today or yesterday)." default:"today"`
	Note  string `help:"Note to attach when marking done."`
}

func (c *DoneCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}

	// The toggle commits before the note is written, so a failed note must
	// not hide the toggle's outcome or its unlocks.
	var (
		res     tracker.ToggleResult
		noteErr error
	)
	err = ctx.WithLock(func() error {
		var toggleErr error
		res, toggleErr = ctx.Tracker.ToggleCompletion(ctx.Ctx, h.ID, day)
		if toggleErr != nil {
			return toggleErr
		}
		if res.Completed && c.Note != "" {
			noteErr = ctx.Tracker.SetNote(ctx.Ctx, h.ID, day, c.Note)
		}
		return nil
	})
	if err != nil {
		return err
	}

	key := ctx.Cal.Key(day)
	if res.Completed {
		st := ctx.Tracker.CurrentAndLongestStreak(ctx.Ctx, h.ID)
		ctx.printf("✓ %s %s done for %s (streak %d)\n", h.Icon, h.Name, key, st.Current)
	} else {
		ctx.printf("○ %s %s unmarked for %s\n", h.Icon, h.Name, key)
	}

	for {
		u, ok := ctx.Tracker.DequeueNextAchievement()
		if !ok {
			break
		}
		ctx.printf("\n%s %s\n   %s %s\n", u.Badge.Icon, u.Badge.Heading(), u.Badge.Title, u.Badge.Message())
	}

	if noteErr != nil {
		return fmt.Errorf("completion recorded but the note was not saved: %w", noteErr)
	}
	return nil
}
