package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianstephens/habitchain/internal/constants"
	"github.com/julianstephens/habitchain/internal/heatmap"
	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/tui"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits with today's status."`
	Edit    HabitEditCmd    `cmd:"" help:"Edit an existing habit."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and all of its completions."`
	Show    HabitShowCmd    `cmd:"" help:"Show a habit with its streak and heatmap."`
	Presets HabitPresetsCmd `cmd:"" help:"List ready-made habits for 'habit add --preset'."`
}

type HabitAddCmd struct {
	Name      string   `arg:"" optional:"" help:"Habit name. Omit to fill in a form."`
	Preset    string   `help:"Start from a preset (see 'habit presets'); other flags override it."`
	Icon      string   `help:"Emoji icon."`
	Color     string   `help:"Hex color used for the habit heatmap."`
	Frequency string   `help:"daily, once, or weekdays such as mon,wed,fri." default:"daily"`
	Target    int      `help:"Completions per day." default:"1"`
	TimeOfDay string   `help:"Morning, Afternoon, Evening or Night." enum:",Morning,Afternoon,Evening,Night" default:""`
	Reminder  string   `help:"Reminder time (HH:MM)."`
	Category  []string `help:"Category tags." sep:","`
}

func (c *HabitAddCmd) habit() (models.Habit, error) {
	var h models.Habit
	switch {
	case c.Preset != "":
		p, ok := models.FindPreset(c.Preset)
		if !ok {
			return models.Habit{}, fmt.Errorf("unknown preset %q, run 'habitchain habit presets' to list them", c.Preset)
		}
		h = p.Habit()
	case c.Name == "":
		fm := &tui.HabitFormModel{}
		if err := tui.NewHabitForm(fm).Run(); err != nil {
			return models.Habit{}, err
		}
		return fm.Habit()
	}

	if c.Name != "" {
		h.Name = c.Name
	}
	if c.Icon != "" {
		h.Icon = c.Icon
	}
	if c.Color != "" {
		h.Color = c.Color
	}
	if c.Frequency != "" {
		freq, err := models.ParseFrequency(c.Frequency)
		if err != nil {
			return models.Habit{}, err
		}
		h.Frequency = freq
	}
	if c.Target != 0 {
		h.Target = c.Target
	}
	if c.TimeOfDay != "" {
		h.TimeOfDay = models.TimeOfDay(c.TimeOfDay)
	}
	if c.Reminder != "" {
		h.ReminderTime = c.Reminder
	}
	if len(c.Category) > 0 {
		h.Category = c.Category
	}
	return h, nil
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	h, err := c.habit()
	if err != nil {
		return err
	}

	return ctx.WithLock(func() error {
		created, err := ctx.Tracker.CreateHabit(ctx.Ctx, h)
		if err != nil {
			return err
		}
		ctx.printf("Added habit #%d: %s %s\n", created.ID, created.Icon, created.Name)
		return nil
	})
}

type HabitListCmd struct {
	JSON bool `help:"Output as JSON."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	summaries, err := ctx.Tracker.Summaries(ctx.Ctx)
	if err != nil {
		return err
	}

	if c.JSON {
		out, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal habits: %w", err)
		}
		ctx.printf("%s\n", out)
		return nil
	}

	if len(summaries) == 0 {
		ctx.printf("No habits found. Add one with 'habitchain habit add'.\n")
		return nil
	}

	for _, s := range summaries {
		mark := "○"
		if s.CompletedToday {
			mark = "✓"
		}
		ctx.printf("%s %3d  %s %-24s %-16s 🔥 %d (best %d)\n",
			mark, s.Habit.ID, s.Habit.Icon, s.Habit.Name, s.Habit.Frequency, s.Streak.Current, s.Streak.Longest)
	}
	return nil
}

type HabitEditCmd struct {
	Habit         string   `arg:"" help:"Habit id or name."`
	Name          string   `help:"New name."`
	Icon          string   `help:"New emoji icon."`
	Color         string   `help:"New hex color."`
	Frequency     string   `help:"New frequency: daily, once, or weekdays such as mon,wed."`
	Target        int      `help:"New completions per day."`
	TimeOfDay     string   `help:"Morning, Afternoon, Evening, Night, or none to clear."`
	Reminder      string   `help:"Reminder time (HH:MM), or none to clear."`
	Category      []string `help:"Replace category tags." sep:","`
	ClearCategory bool     `help:"Remove all category tags."`
}

func (c *HabitEditCmd) apply(h models.Habit) (models.Habit, error) {
	if c.Name != "" {
		h.Name = c.Name
	}
	if c.Icon != "" {
		h.Icon = c.Icon
	}
	if c.Color != "" {
		h.Color = c.Color
	}
	if c.Frequency != "" {
		freq, err := models.ParseFrequency(c.Frequency)
		if err != nil {
			return h, err
		}
		h.Frequency = freq
	}
	if c.Target != 0 {
		h.Target = c.Target
	}
	switch {
	case strings.EqualFold(c.TimeOfDay, "none"):
		h.TimeOfDay = models.TimeOfDayNone
	case c.TimeOfDay != "":
		h.TimeOfDay = models.TimeOfDay(c.TimeOfDay)
	}
	switch {
	case strings.EqualFold(c.Reminder, "none"):
		h.ReminderTime = ""
	case c.Reminder != "":
		h.ReminderTime = c.Reminder
	}
	if c.ClearCategory {
		h.Category = nil
	} else if len(c.Category) > 0 {
		h.Category = c.Category
	}
	return h, nil
}

func (c *HabitEditCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	return ctx.WithLock(func() error {
		h, err := ctx.ResolveHabit(c.Habit)
		if err != nil {
			return err
		}
		h, err = c.apply(h)
		if err != nil {
			return err
		}
		updated, err := ctx.Tracker.UpdateHabit(ctx.Ctx, h)
		if err != nil {
			return err
		}
		ctx.printf("Updated habit #%d: %s %s\n", updated.ID, updated.Icon, updated.Name)
		return nil
	})
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Yes   bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	if !c.Yes && !ctx.confirm(fmt.Sprintf("Delete %q and all of its completions?", h.Name)) {
		ctx.printf("Delete cancelled.\n")
		return nil
	}

	return ctx.WithLock(func() error {
		ctx.PerformAutomaticBackup()
		if err := ctx.Tracker.DeleteHabit(ctx.Ctx, h.ID); err != nil {
			return err
		}
		ctx.printf("Deleted habit #%d: %s\n", h.ID, h.Name)
		return nil
	})
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
}

func (c *HabitShowCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	h, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	st := ctx.Tracker.CurrentAndLongestStreak(ctx.Ctx, h.ID)
	grid := ctx.Tracker.HabitHeatmap(ctx.Ctx, h.ID)

	ctx.printf("%s %s (#%d)\n", h.Icon, h.Name, h.ID)
	ctx.printf("  Frequency:  %s\n", h.Frequency)
	ctx.printf("  Target:     %d per day\n", h.Target)
	if h.TimeOfDay != models.TimeOfDayNone {
		ctx.printf("  Time:       %s\n", h.TimeOfDay)
	}
	if h.ReminderTime != "" {
		ctx.printf("  Reminder:   %s\n", h.ReminderTime)
	}
	if len(h.Category) > 0 {
		ctx.printf("  Categories: %s\n", strings.Join(h.Category, ", "))
	}
	ctx.printf("  Created:    %s\n", h.CreatedAt.In(ctx.Cal.Location()).Format(constants.DateFormat))
	ctx.printf("  Streak:     %d current, %d longest\n", st.Current, st.Longest)
	ctx.printf("  Last year:  %d days\n\n", grid.ActiveDays())
	ctx.printf("%s\n", heatmap.RenderHabit(grid, h.Color))
	return nil
}

type HabitPresetsCmd struct{}

func (c *HabitPresetsCmd) Run(ctx *Context) error {
	for i, g := range models.PresetCatalog {
		if i > 0 {
			ctx.printf("\n")
		}
		ctx.printf("%s\n", g.Category)
		for _, p := range g.Presets {
			ctx.printf("  %s %-30s %s\n", p.Icon, p.Name, p.Key())
		}
	}
	return nil
}
