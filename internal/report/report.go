// Package report formats the stats overview as markdown for terminal output.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/julianstephens/habitchain/internal/achievement"
	"github.com/julianstephens/habitchain/internal/tracker"
)

// Report is everything the stats screen shows.
type Report struct {
	Stats     tracker.Stats
	Habits    []tracker.HabitSummary
	Badges    []achievement.Status
	Generated string
}

// Markdown builds the report document.
func Markdown(r Report) string {
	var b strings.Builder

	b.WriteString("# Habit Stats\n\n")
	if r.Generated != "" {
		fmt.Fprintf(&b, "_As of %s_\n\n", r.Generated)
	}
	if r.Stats.Degraded {
		b.WriteString("> Some data could not be read; figures may be incomplete.\n\n")
	}

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Habits | %d |\n", r.Stats.TotalHabits)
	fmt.Fprintf(&b, "| Completed today | %d |\n", r.Stats.CompletedToday)
	fmt.Fprintf(&b, "| Total completions | %d |\n", r.Stats.TotalCompletions)
	fmt.Fprintf(&b, "| Current daily streak | %d |\n", r.Stats.GlobalStreak)
	fmt.Fprintf(&b, "| Best habit streak | %d |\n", r.Stats.BestStreak)
	fmt.Fprintf(&b, "| Badges unlocked | %d / %d |\n\n", r.Stats.UnlockedBadges, len(r.Badges))

	if len(r.Habits) > 0 {
		b.WriteString("## Habits\n\n")
		b.WriteString("| | Habit | Today | Current | Longest |\n|---|---|---|---|---|\n")
		for _, h := range r.Habits {
			today := " "
			if h.CompletedToday {
				today = "✓"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %d |\n",
				h.Habit.Icon, escape(h.Habit.Name), today, h.Streak.Current, h.Streak.Longest)
		}
		b.WriteString("\n")
	}

	if len(r.Badges) > 0 {
		b.WriteString("## Badges\n\n")
		for _, s := range r.Badges {
			mark := "[ ]"
			if s.Unlocked {
				mark = "[x]"
			}
			fmt.Fprintf(&b, "- %s %s **%s** (%d/%d)\n", mark, s.Badge.Icon, s.Badge.Title, min(s.Progress, s.Badge.Threshold), s.Badge.Threshold)
		}
	}

	return b.String()
}

// escape keeps habit names from breaking table cells.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Render renders markdown for a dark terminal, falling back to the raw text.
func Render(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
