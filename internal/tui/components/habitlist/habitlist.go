package habitlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitchain/internal/tracker"
)

type AddHabitMsg struct{}

type ToggleHabitMsg struct {
	ID int64
}

type DeleteHabitMsg struct {
	ID   int64
	Name string
}

type Item struct {
	Summary tracker.HabitSummary
}

func (i Item) Title() string {
	mark := "○"
	if i.Summary.CompletedToday {
		mark = "✓"
	}
	return fmt.Sprintf("%s %s %s", mark, i.Summary.Habit.Icon, i.Summary.Habit.Name)
}

func (i Item) Description() string {
	s := i.Summary.Streak
	return fmt.Sprintf("🔥 %d day streak | best %d | %s", s.Current, s.Longest, i.Summary.Habit.Frequency)
}

func (i Item) FilterValue() string { return i.Summary.Habit.Name }

type KeyMap struct {
	Add    key.Binding
	Toggle key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle today"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(summaries []tracker.HabitSummary, width, height int) Model {
	l := list.New(items(summaries), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Add, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Add, keys.Delete}
	}

	return Model{list: l, keys: keys}
}

func items(summaries []tracker.HabitSummary) []list.Item {
	out := make([]list.Item, len(summaries))
	for i, s := range summaries {
		out[i] = Item{Summary: s}
	}
	return out
}

// SetSummaries replaces the items, keeping the cursor where it was.
func (m *Model) SetSummaries(summaries []tracker.HabitSummary) {
	m.list.SetItems(items(summaries))
}

// Selected returns the habit under the cursor.
func (m Model) Selected() (tracker.HabitSummary, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return tracker.HabitSummary{}, false
	}
	return i.Summary, true
}

// Filtering reports whether the filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Keys() KeyMap {
	return m.keys
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Toggle):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return ToggleHabitMsg{ID: s.Habit.ID} }
			}
		case key.Matches(msg, m.keys.Delete):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteHabitMsg{ID: s.Habit.ID, Name: s.Habit.Name} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  No habits yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
