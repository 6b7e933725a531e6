package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitchain/internal/heatmap"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if u, ok := m.presenter.Current(); ok {
		box := badgeStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			badgeHeadingStyle.Render(u.Badge.Heading()),
			"",
			u.Badge.Icon+"  "+u.Badge.Title,
			"",
			u.Badge.Message(),
			"",
			mutedStyle.Render("[enter] continue"),
		))
		if m.width == 0 || m.height == 0 {
			return box
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	var content string
	switch m.state {
	case StateHabits:
		content = docStyle.Render(m.habits.View())
	case StateHeatmap:
		content = docStyle.Render(m.viewHeatmap())
	case StateAchievements:
		content = docStyle.Render(m.viewAchievements())
	case StateAddHabit:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	parts := []string{m.viewTabs(), content}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(m))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHeatmap() string {
	grid := m.svc.HeatmapGrid(m.ctx)

	var b strings.Builder
	fmt.Fprintf(&b, "All habits: %d completions on %d days in the last year\n\n", grid.Total(), grid.ActiveDays())
	b.WriteString(heatmap.Render(grid))

	if sel, ok := m.habits.Selected(); ok {
		hg := m.svc.HabitHeatmap(m.ctx, sel.Habit.ID)
		fmt.Fprintf(&b, "\n\n%s %s: %d days, current streak %d, longest %d\n\n",
			sel.Habit.Icon, sel.Habit.Name, hg.ActiveDays(), sel.Streak.Current, sel.Streak.Longest)
		b.WriteString(heatmap.RenderHabit(hg, sel.Habit.Color))
	}
	return b.String()
}

func (m Model) viewAchievements() string {
	var b strings.Builder
	for _, s := range m.svc.Achievements(m.ctx) {
		line := fmt.Sprintf("%s  %-16s %d/%d", s.Badge.Icon, s.Badge.Title, min(s.Progress, s.Badge.Threshold), s.Badge.Threshold)
		if s.Unlocked {
			b.WriteString(line + "\n")
		} else {
			b.WriteString(mutedStyle.Render(line) + "\n")
		}
	}
	return b.String()
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, max(m.height-4, 1),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %q and all of its completions?", m.habitToDelete.Name)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
