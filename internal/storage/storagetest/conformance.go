// Package storagetest holds the behavioral suite every storage.Ledger
// implementation must pass.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/storage"
)

// Factory returns a fresh, initialized ledger using cal. Cleanup is the
// factory's responsibility (t.Cleanup).
type Factory func(t *testing.T, cal calendar.Calendar) storage.Ledger

// Calendar is the fixed calendar the suite runs in. It is deliberately not
// UTC so bucket normalization bugs show up.
func Calendar() calendar.Calendar {
	return calendar.New(time.FixedZone("UTC-5", -5*60*60))
}

// Day returns noon on the given date in the suite calendar.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, Calendar().Location())
}

func sampleHabit(name string, created time.Time) models.Habit {
	return models.Habit{
		Name:      name,
		Color:     "#10B981",
		Icon:      "📚",
		Frequency: models.Daily(),
		Target:    1,
		CreatedAt: created,
	}
}

// Run executes the conformance suite against the ledger built by newLedger.
func Run(t *testing.T, newLedger Factory) {
	ctx := context.Background()
	cal := Calendar()

	t.Run("CreateAndGetHabit", func(t *testing.T) {
		l := newLedger(t, cal)

		in := sampleHabit("Read", Day(2024, 3, 1))
		in.Frequency = models.OnWeekdays(time.Monday, time.Friday)
		in.ReminderTime = "07:30"
		in.ReminderUserName = "Sam"
		in.Category = []string{"learning", "evening"}
		in.TimeOfDay = models.TimeOfDayEvening

		created, err := l.CreateHabit(ctx, in)
		require.NoError(t, err)
		require.NotZero(t, created.ID)

		got, err := l.GetHabit(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Read", got.Name)
		assert.Equal(t, "#10B981", got.Color)
		assert.Equal(t, "📚", got.Icon)
		assert.Equal(t, in.Frequency, got.Frequency)
		assert.Equal(t, 1, got.Target)
		assert.Equal(t, "07:30", got.ReminderTime)
		assert.Equal(t, "Sam", got.ReminderUserName)
		assert.Equal(t, []string{"learning", "evening"}, got.Category)
		assert.Equal(t, models.TimeOfDayEvening, got.TimeOfDay)
		assert.True(t, in.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", in.CreatedAt, got.CreatedAt)
	})

	t.Run("GetUnknownHabit", func(t *testing.T) {
		l := newLedger(t, cal)
		_, err := l.GetHabit(ctx, 999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListHabitsNewestFirst", func(t *testing.T) {
		l := newLedger(t, cal)

		_, err := l.CreateHabit(ctx, sampleHabit("Old", Day(2024, 1, 1)))
		require.NoError(t, err)
		_, err = l.CreateHabit(ctx, sampleHabit("New", Day(2024, 2, 1)))
		require.NoError(t, err)

		habits, err := l.ListHabits(ctx)
		require.NoError(t, err)
		require.Len(t, habits, 2)
		assert.Equal(t, "New", habits[0].Name)
		assert.Equal(t, "Old", habits[1].Name)
	})

	t.Run("UpdateHabit", func(t *testing.T) {
		l := newLedger(t, cal)

		h, err := l.CreateHabit(ctx, sampleHabit("Run", Day(2024, 1, 1)))
		require.NoError(t, err)

		h.Name = "Run 5k"
		h.Target = 3
		h.Frequency = models.Once()
		require.NoError(t, l.UpdateHabit(ctx, h))

		got, err := l.GetHabit(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, "Run 5k", got.Name)
		assert.Equal(t, 3, got.Target)
		assert.Equal(t, models.Once(), got.Frequency)

		h.ID = 999
		assert.ErrorIs(t, l.UpdateHabit(ctx, h), storage.ErrNotFound)
	})

	t.Run("ToggleTwiceRestoresState", func(t *testing.T) {
		l := newLedger(t, cal)
		h, err := l.CreateHabit(ctx, sampleHabit("Meditate", Day(2024, 1, 1)))
		require.NoError(t, err)

		day := Day(2024, 3, 10)
		before, err := l.CountAllCompletions(ctx)
		require.NoError(t, err)

		completed, err := l.ToggleCompletion(ctx, h.ID, day)
		require.NoError(t, err)
		assert.True(t, completed)

		done, err := l.IsCompleted(ctx, h.ID, day)
		require.NoError(t, err)
		assert.True(t, done)

		completed, err = l.ToggleCompletion(ctx, h.ID, day)
		require.NoError(t, err)
		assert.False(t, completed)

		after, err := l.CountAllCompletions(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		done, err = l.IsCompleted(ctx, h.ID, day)
		require.NoError(t, err)
		assert.False(t, done)
	})

	t.Run("ToggleUnknownHabit", func(t *testing.T) {
		l := newLedger(t, cal)
		_, err := l.ToggleCompletion(ctx, 42, Day(2024, 3, 10))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ToggleNormalizesToDayBucket", func(t *testing.T) {
		l := newLedger(t, cal)
		h, err := l.CreateHabit(ctx, sampleHabit("Stretch", Day(2024, 1, 1)))
		require.NoError(t, err)

		morning := time.Date(2024, 3, 10, 0, 5, 0, 0, cal.Location())
		night := time.Date(2024, 3, 10, 23, 55, 0, 0, cal.Location())

		completed, err := l.ToggleCompletion(ctx, h.ID, morning)
		require.NoError(t, err)
		require.True(t, completed)

		// Same calendar day, different instant: must hit the same record.
		completed, err = l.ToggleCompletion(ctx, h.ID, night)
		require.NoError(t, err)
		assert.False(t, completed)

		count, err := l.CountAllCompletions(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("AtMostOneCompletionPerDay", func(t *testing.T) {
		l := newLedger(t, cal)
		h, err := l.CreateHabit(ctx, sampleHabit("Water", Day(2024, 1, 1)))
		require.NoError(t, err)

		day := Day(2024, 4, 1)
		for i := 0; i < 5; i++ {
			_, err := l.ToggleCompletion(ctx, h.ID, day)
			require.NoError(t, err)
		}

		days, err := l.ListCompletionDays(ctx, h.ID)
		require.NoError(t, err)
		assert.Len(t, days, 1)
	})

	t.Run("ListCompletionDaysDescending", func(t *testing.T) {
		l := newLedger(t, cal)
		h, err := l.CreateHabit(ctx, sampleHabit("Journal", Day(2024, 1, 1)))
		require.NoError(t, err)
		other, err := l.CreateHabit(ctx, sampleHabit("Walk", Day(2024, 1, 2)))
		require.NoError(t, err)

		for _, d := range []time.Time{Day(2024, 3, 2), Day(2024, 3, 5), Day(2024, 3, 1)} {
			_, err := l.ToggleCompletion(ctx, h.ID, d)
			require.NoError(t, err)
		}
		_, err = l.ToggleCompletion(ctx, other.ID, Day(2024, 3, 4))
		require.NoError(t, err)

		days, err := l.ListCompletionDays(ctx, h.ID)
		require.NoError(t, err)
		require.Len(t, days, 3)
		assert.Equal(t, "2024-03-05", cal.Key(days[0]))
		assert.Equal(t, "2024-03-02", cal.Key(days[1]))
		assert.Equal(t, "2024-03-01", cal.Key(days[2]))
		for _, d := range days {
			assert.True(t, d.Equal(cal.StartOfDay(d)), "%v is not a day bucket", d)
		}
	})

	t.Run("ListActiveDaysDistinct", func(t *testing.T) {
		l := newLedger(t, cal)
		a, err := l.CreateHabit(ctx, sampleHabit("A", Day(2024, 1, 1)))
		require.NoError(t, err)
		b, err := l.CreateHabit(ctx, sampleHabit("B", Day(2024, 1, 1)))
		require.NoError(t, err)

		for _, id := range []int64{a.ID, b.ID} {
			_, err := l.ToggleCompletion(ctx, id, Day(2024, 5, 1))
			require.NoError(t, err)
		}
		_, err = l.ToggleCompletion(ctx, a.ID, Day(2024, 5, 3))
		require.NoError(t, err)

		days, err := l.ListActiveDays(ctx)
		require.NoError(t, err)
		require.Len(t, days, 2)
		assert.Equal(t, "2024-05-03", cal.Key(days[0]))
		assert.Equal(t, "2024-05-01", cal.Key(days[1]))
	})

	t.Run("CountCompletionsInRange", func(t *testing.T) {
		l := newLedger(t, cal)
		a, err := l.CreateHabit(ctx, sampleHabit("A", Day(2024, 1, 1)))
		require.NoError(t, err)
		b, err := l.CreateHabit(ctx, sampleHabit("B", Day(2024, 1, 1)))
		require.NoError(t, err)

		toggle := func(id int64, d time.Time) {
			_, err := l.ToggleCompletion(ctx, id, d)
			require.NoError(t, err)
		}
		toggle(a.ID, Day(2024, 6, 1))
		toggle(b.ID, Day(2024, 6, 1))
		toggle(a.ID, Day(2024, 6, 10))
		toggle(a.ID, Day(2024, 6, 11)) // outside
		toggle(a.ID, Day(2024, 5, 31)) // outside

		counts, err := l.CountCompletionsInRange(ctx, Day(2024, 6, 1), Day(2024, 6, 10))
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"2024-06-01": 2, "2024-06-10": 1}, counts)

		total, err := l.CountAllCompletions(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
	})

	t.Run("CompletionNotes", func(t *testing.T) {
		l := newLedger(t, cal)
		h, err := l.CreateHabit(ctx, sampleHabit("Piano", Day(2024, 1, 1)))
		require.NoError(t, err)

		day := Day(2024, 7, 4)
		err = l.SetCompletionNote(ctx, h.ID, day, "scales")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = l.ToggleCompletion(ctx, h.ID, day)
		require.NoError(t, err)
		require.NoError(t, l.SetCompletionNote(ctx, h.ID, day, "scales"))

		c, err := l.GetCompletion(ctx, h.ID, day)
		require.NoError(t, err)
		assert.Equal(t, h.ID, c.HabitID)
		assert.Equal(t, 1, c.Value)
		assert.Equal(t, "scales", c.Notes)
		assert.Equal(t, "2024-07-04", cal.Key(c.Date))

		_, err = l.GetCompletion(ctx, h.ID, Day(2024, 7, 5))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DeleteHabitCascades", func(t *testing.T) {
		l := newLedger(t, cal)
		h, err := l.CreateHabit(ctx, sampleHabit("Doomed", Day(2024, 1, 1)))
		require.NoError(t, err)
		keep, err := l.CreateHabit(ctx, sampleHabit("Keeper", Day(2024, 1, 1)))
		require.NoError(t, err)

		for _, d := range []time.Time{Day(2024, 2, 1), Day(2024, 2, 2)} {
			_, err := l.ToggleCompletion(ctx, h.ID, d)
			require.NoError(t, err)
		}
		_, err = l.ToggleCompletion(ctx, keep.ID, Day(2024, 2, 1))
		require.NoError(t, err)

		require.NoError(t, l.DeleteHabit(ctx, h.ID))

		days, err := l.ListCompletionDays(ctx, h.ID)
		require.NoError(t, err)
		assert.Empty(t, days)

		total, err := l.CountAllCompletions(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		_, err = l.GetHabit(ctx, h.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, l.DeleteHabit(ctx, h.ID), storage.ErrNotFound)
	})

	t.Run("DeleteCompletions", func(t *testing.T) {
		l := newLedger(t, cal)
		a, err := l.CreateHabit(ctx, sampleHabit("A", Day(2024, 1, 1)))
		require.NoError(t, err)
		b, err := l.CreateHabit(ctx, sampleHabit("B", Day(2024, 1, 1)))
		require.NoError(t, err)

		for _, id := range []int64{a.ID, b.ID} {
			_, err := l.ToggleCompletion(ctx, id, Day(2024, 8, 1))
			require.NoError(t, err)
		}

		require.NoError(t, l.DeleteCompletionsForHabit(ctx, a.ID))
		total, err := l.CountAllCompletions(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		require.NoError(t, l.DeleteAllCompletions(ctx))
		total, err = l.CountAllCompletions(ctx)
		require.NoError(t, err)
		assert.Zero(t, total)

		habits, err := l.ListHabits(ctx)
		require.NoError(t, err)
		assert.Len(t, habits, 2, "clearing completions keeps habits")
	})
}
