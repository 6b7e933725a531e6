package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitchain/internal/achievement"
	"github.com/julianstephens/habitchain/internal/logger"
	"github.com/julianstephens/habitchain/internal/tui/components/habitlist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.habits.SetSize(msg.Width-4, max(msg.Height-8, 1))
		return m, nil
	}

	// A badge on screen swallows keys until it is dismissed.
	if m.presenter.State() == achievement.Showing {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch {
			case key.Matches(msg, m.keys.Dismiss):
				m.presenter.Acknowledge()
				m.presenter.Advance()
			case msg.Type == tea.KeyCtrlC:
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
	}

	switch msg := msg.(type) {
	case habitlist.AddHabitMsg:
		m.habitForm = &HabitFormModel{}
		m.form = NewHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()

	case habitlist.ToggleHabitMsg:
		m.toggle(msg.ID)
		return m, nil

	case habitlist.DeleteHabitMsg:
		m.habitToDelete = msg
		m.state = StateConfirmDelete
		return m, nil
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && !(m.state == StateHabits && m.habits.Filtering()) {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	// The heatmap tab follows the habit under the list cursor.
	if m.state == StateHabits || m.state == StateHeatmap {
		var cmd tea.Cmd
		m.habits, cmd = m.habits.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) toggle(habitID int64) {
	res, err := m.svc.ToggleToday(m.ctx, habitID)
	if err != nil {
		logger.Error("Toggle failed", "habit", habitID, "error", err)
		m.status = "⚠ " + err.Error()
		return
	}

	if res.Completed {
		m.status = "✓ Marked done for today"
	} else {
		m.status = "○ Unmarked for today"
	}
	m.refresh()
	m.presenter.Advance()
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateHabits
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		habit, err := m.habitForm.Habit()
		if err == nil {
			habit, err = m.svc.CreateHabit(m.ctx, habit)
		}
		if err != nil {
			// Stay on the form so the user can fix the input or cancel with esc.
			m.status = "⚠ " + err.Error()
			m.form.State = huh.StateNormal
			return m, cmd
		}
		m.status = fmt.Sprintf("Added %s %s", habit.Icon, habit.Name)
		m.state = StateHabits
		m.refresh()
	case huh.StateAborted:
		m.state = StateHabits
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		if err := m.svc.DeleteHabit(m.ctx, m.habitToDelete.ID); err != nil {
			m.status = "⚠ " + err.Error()
		} else {
			m.status = "Deleted " + m.habitToDelete.Name
		}
		m.state = StateHabits
		m.refresh()
	case key.Matches(keyMsg, m.keys.Cancel):
		m.state = StateHabits
	}
	return m, nil
}
