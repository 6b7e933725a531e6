package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitchain/internal/achievement"
	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/constants"
	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/storage"
	"github.com/julianstephens/habitchain/internal/streak"
	"github.com/julianstephens/habitchain/internal/validation"
)

var errUnavailable = errors.New("storage unavailable")

// flakyLedger wraps a ledger and fails the selected reads or writes.
type flakyLedger struct {
	storage.Ledger
	failReads  bool
	failCount  bool
	failToggle bool
}

func (f *flakyLedger) CountAllCompletions(ctx context.Context) (int, error) {
	if f.failReads || f.failCount {
		return 0, errUnavailable
	}
	return f.Ledger.CountAllCompletions(ctx)
}

func (f *flakyLedger) ListCompletionDays(ctx context.Context, id int64) ([]time.Time, error) {
	if f.failReads {
		return nil, errUnavailable
	}
	return f.Ledger.ListCompletionDays(ctx, id)
}

func (f *flakyLedger) ListActiveDays(ctx context.Context) ([]time.Time, error) {
	if f.failReads {
		return nil, errUnavailable
	}
	return f.Ledger.ListActiveDays(ctx)
}

func (f *flakyLedger) CountCompletionsInRange(ctx context.Context, start, end time.Time) (map[string]int, error) {
	if f.failReads {
		return nil, errUnavailable
	}
	return f.Ledger.CountCompletionsInRange(ctx, start, end)
}

func (f *flakyLedger) IsCompleted(ctx context.Context, id int64, day time.Time) (bool, error) {
	if f.failReads {
		return false, errUnavailable
	}
	return f.Ledger.IsCompleted(ctx, id, day)
}

func (f *flakyLedger) ToggleCompletion(ctx context.Context, id int64, day time.Time) (bool, error) {
	if f.failToggle {
		return false, errUnavailable
	}
	return f.Ledger.ToggleCompletion(ctx, id, day)
}

type fixture struct {
	svc    *Service
	ledger *flakyLedger
	cal    calendar.Calendar
	today  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cal := calendar.New(time.UTC)
	now := time.Date(2024, 6, 12, 9, 30, 0, 0, time.UTC)
	ledger := &flakyLedger{Ledger: storage.NewMemoryStore(cal)}
	return &fixture{
		svc:    New(ledger, cal, WithClock(func() time.Time { return now })),
		ledger: ledger,
		cal:    cal,
		today:  cal.StartOfDay(now),
	}
}

func (f *fixture) habit(t *testing.T, name string) models.Habit {
	t.Helper()
	h, err := f.svc.CreateHabit(context.Background(), models.Habit{Name: name})
	require.NoError(t, err)
	return h
}

func (f *fixture) complete(t *testing.T, id int64, daysAgo ...int) {
	t.Helper()
	for _, n := range daysAgo {
		res, err := f.svc.ToggleCompletion(context.Background(), id, f.cal.AddDays(f.today, -n))
		require.NoError(t, err)
		require.True(t, res.Completed)
	}
}

func badgeIDs(unlocks []achievement.Unlock) []string {
	var ids []string
	for _, u := range unlocks {
		ids = append(ids, u.Badge.ID)
	}
	return ids
}

func TestCreateHabitAppliesDefaults(t *testing.T) {
	f := newFixture(t)
	h := f.habit(t, "  Read  ")

	assert.Equal(t, "Read", h.Name)
	assert.Equal(t, constants.DefaultHabitColor, h.Color)
	assert.Equal(t, constants.DefaultHabitIcon, h.Icon)
	assert.Equal(t, 1, h.Target)
	assert.Equal(t, models.Daily(), h.Frequency)
	assert.False(t, h.CreatedAt.IsZero())
}

func TestCreateHabitRejectsInvalidAndDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.habit(t, "Read")

	_, err := f.svc.CreateHabit(ctx, models.Habit{Name: "READ"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = f.svc.CreateHabit(ctx, models.Habit{Name: "Run", Color: "blue"})
	var verr validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "color", verr.Field)
}

func TestUpdateHabitKeepsOwnName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Read")
	other := f.habit(t, "Run")

	h.Target = 2
	updated, err := f.svc.UpdateHabit(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Target)

	other.Name = "read"
	_, err = f.svc.UpdateHabit(ctx, other)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestToggleFirstCompletionUnlocksBothTracks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Meditate")

	res, err := f.svc.ToggleToday(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, []string{"completions-1", "streak-1"}, badgeIDs(res.Unlocks))
	assert.Equal(t, 2, f.svc.Queue().Len())

	first, ok := f.svc.DequeueNextAchievement()
	require.True(t, ok)
	assert.Equal(t, "completions-1", first.Badge.ID)
	second, ok := f.svc.DequeueNextAchievement()
	require.True(t, ok)
	assert.Equal(t, "streak-1", second.Badge.ID)
	_, ok = f.svc.DequeueNextAchievement()
	assert.False(t, ok)
}

func TestToggleOffNeverUnlocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Meditate")

	_, err := f.svc.ToggleToday(ctx, h.ID)
	require.NoError(t, err)
	for f.svc.Queue().Len() > 0 {
		f.svc.DequeueNextAchievement()
	}

	res, err := f.svc.ToggleToday(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Empty(t, res.Unlocks)
	assert.Zero(t, f.svc.Queue().Len())

	// Unlocks are not persisted: dropping back below a threshold and
	// crossing it again reports it again.
	res, err = f.svc.ToggleToday(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, []string{"completions-1", "streak-1"}, badgeIDs(res.Unlocks))
}

func TestToggleReachesTenCompletions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.habit(t, "A")
	b := f.habit(t, "B")

	// Non-consecutive days keep the best streak at 1.
	f.complete(t, a.ID, 0, 2, 4, 6, 8)
	f.complete(t, b.ID, 10, 12, 14, 16)
	assert.Equal(t, 9, f.svc.Snapshot(ctx).Completions)

	res, err := f.svc.ToggleCompletion(ctx, b.ID, f.cal.AddDays(f.today, -18))
	require.NoError(t, err)
	assert.Equal(t, []string{"completions-10"}, badgeIDs(res.Unlocks))
}

func TestToggleReachesStreakTen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Walk")

	f.complete(t, h.ID, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	assert.Equal(t, 9, f.svc.BestStreak(ctx))

	res, err := f.svc.ToggleToday(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"completions-10", "streak-10"}, badgeIDs(res.Unlocks))
}

func TestToggleErrorPropagates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Read")

	f.ledger.failToggle = true
	_, err := f.svc.ToggleToday(ctx, h.ID)
	assert.ErrorIs(t, err, errUnavailable)
	assert.Zero(t, f.svc.Queue().Len())

	f.ledger.failToggle = false
	_, err = f.svc.ToggleToday(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDegradedSnapshotSuppressesBadges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Read")

	f.ledger.failCount = true
	res, err := f.svc.ToggleToday(ctx, h.ID)
	require.NoError(t, err, "reads failing must not fail the mutation")
	assert.True(t, res.Completed)
	assert.Empty(t, res.Unlocks)
	assert.True(t, f.svc.Snapshot(ctx).Degraded)
}

func TestReadsFailOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Read")
	f.complete(t, h.ID, 0, 1)

	f.ledger.failReads = true

	assert.Equal(t, streak.Result{}, f.svc.CurrentAndLongestStreak(ctx, h.ID))
	assert.Zero(t, f.svc.BestStreak(ctx))
	assert.False(t, f.svc.IsCompleted(ctx, h.ID, f.today))

	grid := f.svc.HeatmapGrid(ctx)
	assert.Len(t, grid.Cells, constants.HeatmapSlots)
	assert.Zero(t, grid.Total())

	habitGrid := f.svc.HabitHeatmap(ctx, h.ID)
	assert.Zero(t, habitGrid.ActiveDays())

	st := f.svc.Stats(ctx)
	assert.True(t, st.Degraded)
	assert.Zero(t, st.TotalCompletions)
	assert.Equal(t, 1, st.TotalHabits)
}

func TestStreakAndHeatmap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.habit(t, "A")
	b := f.habit(t, "B")

	f.complete(t, a.ID, 0, 1, 2, 5)
	f.complete(t, b.ID, 0, 7)

	assert.Equal(t, streak.Result{Current: 3, Longest: 3}, f.svc.CurrentAndLongestStreak(ctx, a.ID))
	assert.Equal(t, streak.Result{Current: 1, Longest: 1}, f.svc.CurrentAndLongestStreak(ctx, b.ID))
	assert.Equal(t, 3, f.svc.BestStreak(ctx))

	grid := f.svc.HeatmapGrid(ctx)
	assert.Equal(t, 2, grid.TodayCell().Count)
	assert.Equal(t, 2, grid.TodayCell().Intensity)
	assert.Equal(t, 6, grid.Total())

	habitGrid := f.svc.HabitHeatmap(ctx, a.ID)
	assert.Equal(t, 4, habitGrid.ActiveDays())
	assert.True(t, habitGrid.TodayCell().Completed)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.habit(t, "A")
	b := f.habit(t, "B")

	f.complete(t, a.ID, 0, 1, 2)
	f.complete(t, b.ID, 0, 3)

	st := f.svc.Stats(ctx)
	assert.False(t, st.Degraded)
	assert.Equal(t, 5, st.TotalCompletions)
	assert.Equal(t, 2, st.TotalHabits)
	assert.Equal(t, 2, st.CompletedToday)
	assert.Equal(t, 4, st.GlobalStreak)
	assert.Equal(t, 3, st.BestStreak)
	assert.Equal(t, 2, st.UnlockedBadges) // completions-1, streak-1
}

func TestSummaries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.habit(t, "A")
	f.habit(t, "B")
	f.complete(t, a.ID, 0, 1)

	sums, err := f.svc.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 2)

	byName := map[string]HabitSummary{}
	for _, s := range sums {
		byName[s.Habit.Name] = s
	}
	assert.True(t, byName["A"].CompletedToday)
	assert.Equal(t, 2, byName["A"].Streak.Current)
	assert.False(t, byName["B"].CompletedToday)
}

func TestDeleteHabitCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.habit(t, "A")
	b := f.habit(t, "B")
	f.complete(t, a.ID, 0, 1)
	f.complete(t, b.ID, 0)

	require.NoError(t, f.svc.DeleteHabit(ctx, a.ID))
	assert.Equal(t, 1, f.svc.Snapshot(ctx).Completions)

	days, err := f.ledger.ListCompletionDays(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, days)

	assert.ErrorIs(t, f.svc.DeleteHabit(ctx, a.ID), storage.ErrNotFound)
}

func TestClearCompletions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.habit(t, "A")
	b := f.habit(t, "B")
	f.complete(t, a.ID, 0, 1)
	f.complete(t, b.ID, 0)

	require.NoError(t, f.svc.ClearHabitCompletions(ctx, a.ID))
	assert.Equal(t, 1, f.svc.Snapshot(ctx).Completions)
	assert.ErrorIs(t, f.svc.ClearHabitCompletions(ctx, 999), storage.ErrNotFound)

	require.NoError(t, f.svc.ClearCompletions(ctx))
	assert.Zero(t, f.svc.Snapshot(ctx).Completions)
}

func TestNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "Piano")
	f.complete(t, h.ID, 0)

	require.NoError(t, f.svc.SetNote(ctx, h.ID, f.today, "scales"))
	c, err := f.svc.GetCompletion(ctx, h.ID, f.today)
	require.NoError(t, err)
	assert.Equal(t, "scales", c.Notes)
}

func TestAchievementsCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.habit(t, "A")
	f.complete(t, h.ID, 0)

	statuses := f.svc.Achievements(ctx)
	require.Len(t, statuses, 12)
	assert.True(t, statuses[0].Unlocked)
	assert.False(t, statuses[1].Unlocked)
}

func TestSharedQueueWithPresenter(t *testing.T) {
	cal := calendar.New(time.UTC)
	q := achievement.NewQueue()
	svc := New(storage.NewMemoryStore(cal), cal, WithQueue(q))
	ctx := context.Background()

	h, err := svc.CreateHabit(ctx, models.Habit{Name: "Yoga"})
	require.NoError(t, err)
	_, err = svc.ToggleToday(ctx, h.ID)
	require.NoError(t, err)

	p := achievement.NewPresenter(q)
	require.True(t, p.Advance())
	cur, _ := p.Current()
	assert.Equal(t, "completions-1", cur.Badge.ID)
}
