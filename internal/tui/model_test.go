package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitchain/internal/achievement"
	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/storage"
	"github.com/julianstephens/habitchain/internal/tracker"
	"github.com/julianstephens/habitchain/internal/tui/components/habitlist"
)

func newTestModel(t *testing.T) (Model, *tracker.Service) {
	t.Helper()
	ctx := context.Background()
	cal := calendar.New(time.UTC)

	ledger := storage.NewMemoryStore(cal)
	require.NoError(t, ledger.Init(ctx))

	now := time.Date(2024, 6, 12, 9, 30, 0, 0, time.UTC)
	svc := tracker.New(ledger, cal, tracker.WithClock(func() time.Time { return now }))
	m := NewModel(ctx, svc)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, svc
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestEmptyModel(t *testing.T) {
	m, _ := newTestModel(t)

	assert.Equal(t, StateHabits, m.state)
	assert.Contains(t, m.View(), "No habits yet")
}

func TestTabsCycle(t *testing.T) {
	m, _ := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateHeatmap, m.state)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateAchievements, m.state)
	assert.Contains(t, m.View(), "First Habit")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateHabits, m.state)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, StateAchievements, m.state)
}

func TestToggleShowsBadgesOneAtATime(t *testing.T) {
	m, svc := newTestModel(t)
	h, err := svc.CreateHabit(context.Background(), models.Habit{Name: "Read", Icon: "📚"})
	require.NoError(t, err)
	m.refresh()

	m = update(t, m, habitlist.ToggleHabitMsg{ID: h.ID})
	require.Equal(t, achievement.Showing, m.presenter.State())
	assert.Contains(t, m.View(), "First Habit")
	assert.Equal(t, 1, svc.Queue().Len())

	// Keys other than dismiss do nothing while a badge is showing.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateHabits, m.state)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, achievement.Showing, m.presenter.State())
	assert.Contains(t, m.View(), "Streak Starter")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, achievement.Idle, m.presenter.State())
	assert.Equal(t, 0, svc.Queue().Len())
	assert.Contains(t, m.View(), "✓ 📚 Read")
}

func TestToggleOffUpdatesList(t *testing.T) {
	m, svc := newTestModel(t)
	h, err := svc.CreateHabit(context.Background(), models.Habit{Name: "Run", Icon: "🏃"})
	require.NoError(t, err)
	m.refresh()

	m = update(t, m, habitlist.ToggleHabitMsg{ID: h.ID})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, habitlist.ToggleHabitMsg{ID: h.ID})

	assert.Equal(t, achievement.Idle, m.presenter.State())
	assert.Contains(t, m.View(), "○ 🏃 Run")
	assert.Contains(t, m.status, "Unmarked")
}

func TestToggleUnknownHabitReportsError(t *testing.T) {
	m, _ := newTestModel(t)

	m = update(t, m, habitlist.ToggleHabitMsg{ID: 99})
	assert.True(t, strings.HasPrefix(m.status, "⚠"))
	assert.Equal(t, achievement.Idle, m.presenter.State())
}

func TestDeleteConfirmation(t *testing.T) {
	m, svc := newTestModel(t)
	ctx := context.Background()
	h, err := svc.CreateHabit(ctx, models.Habit{Name: "Stretch"})
	require.NoError(t, err)
	m.refresh()

	m = update(t, m, habitlist.DeleteHabitMsg{ID: h.ID, Name: h.Name})
	assert.Equal(t, StateConfirmDelete, m.state)
	assert.Contains(t, m.View(), `Delete "Stretch"`)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	assert.Equal(t, StateHabits, m.state)
	_, err = svc.GetHabit(ctx, h.ID)
	require.NoError(t, err)

	m = update(t, m, habitlist.DeleteHabitMsg{ID: h.ID, Name: h.Name})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	assert.Equal(t, StateHabits, m.state)
	_, err = svc.GetHabit(ctx, h.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddHabitOpensForm(t *testing.T) {
	m, _ := newTestModel(t)

	m = update(t, m, habitlist.AddHabitMsg{})
	assert.Equal(t, StateAddHabit, m.state)
	require.NotNil(t, m.form)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateHabits, m.state)
}

func TestHeatmapTabShowsSelectedHabit(t *testing.T) {
	m, svc := newTestModel(t)
	h, err := svc.CreateHabit(context.Background(), models.Habit{Name: "Floss", Icon: "🦷"})
	require.NoError(t, err)
	m.refresh()

	m = update(t, m, habitlist.ToggleHabitMsg{ID: h.ID})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	view := m.View()
	assert.Contains(t, view, "All habits: 1 completions on 1 days")
	assert.Contains(t, view, "🦷 Floss: 1 days, current streak 1, longest 1")
}

func TestHabitFormModel(t *testing.T) {
	fm := HabitFormModel{
		Name:      "Read",
		Frequency: "mon, wed",
		Target:    "2",
		TimeOfDay: "Evening",
		Category:  "mind, books",
	}

	h, err := fm.Habit()
	require.NoError(t, err)
	assert.Equal(t, models.OnWeekdays(time.Monday, time.Wednesday), h.Frequency)
	assert.Equal(t, 2, h.Target)
	assert.Equal(t, models.TimeOfDayEvening, h.TimeOfDay)
	assert.Equal(t, []string{"mind", "books"}, h.Category)

	defaults, err := HabitFormModel{Name: "Walk"}.Habit()
	require.NoError(t, err)
	assert.Equal(t, models.Daily(), defaults.Frequency)
	assert.Equal(t, 1, defaults.Target)

	_, err = HabitFormModel{Name: "Walk", Target: "0"}.Habit()
	assert.Error(t, err)
	_, err = HabitFormModel{Name: "Walk", Frequency: "weekly"}.Habit()
	assert.Error(t, err)
}

func TestHabitFormModelFromPreset(t *testing.T) {
	h, err := HabitFormModel{Preset: "read-20-pages"}.Habit()
	require.NoError(t, err)
	assert.Equal(t, "Read 20 pages", h.Name)
	assert.Equal(t, "📚", h.Icon)
	assert.Equal(t, "#6366F1", h.Color)
	assert.Equal(t, []string{"Productivity"}, h.Category)
	assert.Equal(t, models.Daily(), h.Frequency)

	// Typed fields win over the preset.
	h, err = HabitFormModel{Preset: "read-20-pages", Name: "Read 30 pages", Target: "2", Category: "books"}.Habit()
	require.NoError(t, err)
	assert.Equal(t, "Read 30 pages", h.Name)
	assert.Equal(t, "📚", h.Icon)
	assert.Equal(t, 2, h.Target)
	assert.Equal(t, []string{"books"}, h.Category)

	_, err = HabitFormModel{Preset: "juggling"}.Habit()
	assert.Error(t, err)
}

func TestAddHabitFromPresetThroughService(t *testing.T) {
	_, svc := newTestModel(t)
	h, err := HabitFormModel{Preset: "deep-breathing"}.Habit()
	require.NoError(t, err)

	created, err := svc.CreateHabit(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "Deep breathing", created.Name)
	assert.Equal(t, "🌬️", created.Icon)
	assert.Equal(t, []string{"Mindfulness"}, created.Category)
}
