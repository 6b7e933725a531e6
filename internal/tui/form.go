package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitchain/internal/constants"
	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/validation"
)

// HabitFormModel holds the raw text of the add-habit form. Preset is a
// preset key; blank fields then take the preset's values.
type HabitFormModel struct {
	Preset    string
	Name      string
	Icon      string
	Color     string
	Frequency string
	Target    string
	TimeOfDay string
	Reminder  string
	Category  string
}

// NewHabitForm builds the add-habit form bound to fm.
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Start from").
				Options(presetOptions()...).
				Value(&fm.Preset),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("leave blank to keep the preset's name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if fm.Preset == "" && validation.NormalizeName(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Icon").
				Placeholder(constants.DefaultHabitIcon).
				Value(&fm.Icon),
			huh.NewInput().
				Title("Color").
				Placeholder(constants.DefaultHabitColor).
				Value(&fm.Color),
			huh.NewInput().
				Title("Frequency").
				Description("daily, once, or weekdays such as mon,wed,fri").
				Placeholder("daily").
				Value(&fm.Frequency).
				Validate(func(s string) error {
					_, err := models.ParseFrequency(s)
					return err
				}),
			huh.NewInput().
				Title("Daily target").
				Placeholder(strconv.Itoa(constants.DefaultHabitTarget)).
				Value(&fm.Target).
				Validate(func(s string) error {
					_, err := parseTarget(s)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Time of day").
				Options(
					huh.NewOption("Any time", string(models.TimeOfDayNone)),
					huh.NewOption("Morning", string(models.TimeOfDayMorning)),
					huh.NewOption("Afternoon", string(models.TimeOfDayAfternoon)),
					huh.NewOption("Evening", string(models.TimeOfDayEvening)),
					huh.NewOption("Night", string(models.TimeOfDayNight)),
				).
				Value(&fm.TimeOfDay),
			huh.NewInput().
				Title("Reminder").
				Description("HH:MM, optional").
				Value(&fm.Reminder),
			huh.NewInput().
				Title("Categories").
				Description("comma separated, optional").
				Value(&fm.Category),
		),
	)
}

func presetOptions() []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("Custom habit", "")}
	for _, p := range models.Presets() {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s %s (%s)", p.Icon, p.Name, p.Category), p.Key()))
	}
	return opts
}

func parseTarget(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return constants.DefaultHabitTarget, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("target must be a positive number")
	}
	return n, nil
}

// Habit converts the form into an unsaved habit.
func (fm HabitFormModel) Habit() (models.Habit, error) {
	freq, err := models.ParseFrequency(fm.Frequency)
	if err != nil {
		return models.Habit{}, err
	}
	target, err := parseTarget(fm.Target)
	if err != nil {
		return models.Habit{}, err
	}

	var tags []string
	if strings.TrimSpace(fm.Category) != "" {
		for _, tag := range strings.Split(fm.Category, ",") {
			tags = append(tags, strings.TrimSpace(tag))
		}
	}

	h := models.Habit{
		Name:         fm.Name,
		Icon:         fm.Icon,
		Color:        fm.Color,
		Frequency:    freq,
		Target:       target,
		TimeOfDay:    models.TimeOfDay(fm.TimeOfDay),
		ReminderTime: fm.Reminder,
		Category:     tags,
	}
	if fm.Preset == "" {
		return h, nil
	}

	p, ok := models.FindPreset(fm.Preset)
	if !ok {
		return models.Habit{}, fmt.Errorf("unknown preset %q", fm.Preset)
	}
	base := p.Habit()
	if strings.TrimSpace(h.Name) == "" {
		h.Name = base.Name
	}
	if strings.TrimSpace(h.Icon) == "" {
		h.Icon = base.Icon
	}
	if strings.TrimSpace(h.Color) == "" {
		h.Color = base.Color
	}
	if len(h.Category) == 0 {
		h.Category = base.Category
	}
	return h, nil
}
