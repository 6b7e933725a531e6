package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitchain/internal/achievement"
	"github.com/julianstephens/habitchain/internal/tracker"
	"github.com/julianstephens/habitchain/internal/tui/components/habitlist"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateHeatmap
	StateAchievements
	StateAddHabit
	StateConfirmDelete
)

// tabCount is the number of states reachable with tab.
const tabCount = 3

var tabTitles = []string{"Habits", "Heatmap", "Achievements"}

type Model struct {
	ctx           context.Context
	svc           *tracker.Service
	presenter     *achievement.Presenter
	state         SessionState
	keys          KeyMap
	help          help.Model
	habits        habitlist.Model
	form          *huh.Form
	habitForm     *HabitFormModel
	habitToDelete habitlist.DeleteHabitMsg
	status        string
	quitting      bool
	width         int
	height        int
}

// NewModel builds the UI over svc. Unlocks are drained from svc's queue.
func NewModel(ctx context.Context, svc *tracker.Service) Model {
	m := Model{
		ctx:       ctx,
		svc:       svc,
		presenter: achievement.NewPresenter(svc.Queue()),
		state:     StateHabits,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		habits:    habitlist.New(nil, 0, 0),
	}
	m.refresh()
	m.presenter.Advance()
	return m
}

// refresh reloads the habit summaries from the tracker.
func (m *Model) refresh() {
	summaries, err := m.svc.Summaries(m.ctx)
	if err != nil {
		m.status = "⚠ Could not load habits: " + err.Error()
		return
	}
	m.habits.SetSummaries(summaries)
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == StateHabits {
		hk := m.habits.Keys()
		keys = append(keys, hk.Toggle, hk.Add, hk.Delete)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	if m.state == StateHabits {
		hk := m.habits.Keys()
		actions = []key.Binding{hk.Toggle, hk.Add, hk.Delete}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return nil
}
