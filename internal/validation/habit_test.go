package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitchain/internal/models"
)

func TestPrepareHabitDefaults(t *testing.T) {
	h, err := PrepareHabit(models.Habit{Name: "  Read  "})
	require.NoError(t, err)

	assert.Equal(t, "Read", h.Name)
	assert.Equal(t, "#3B82F6", h.Color)
	assert.Equal(t, "🎯", h.Icon)
	assert.Equal(t, 1, h.Target)
	assert.Equal(t, models.Daily(), h.Frequency)
}

func TestValidateHabitRejects(t *testing.T) {
	tests := []struct {
		name  string
		habit models.Habit
		field string
	}{
		{"empty name", models.Habit{Name: "   "}, "name"},
		{"negative target", models.Habit{Name: "Run", Target: -2}, "target"},
		{"bad color", models.Habit{Name: "Run", Color: "blue"}, "color"},
		{"bad time of day", models.Habit{Name: "Run", TimeOfDay: "Dawn"}, "time of day"},
		{"bad reminder", models.Habit{Name: "Run", ReminderTime: "7am"}, "reminder time"},
		{"empty weekday set", models.Habit{Name: "Run", Frequency: models.Frequency{Kind: models.FrequencyWeekdays}}, "frequency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrepareHabit(tt.habit)
			require.Error(t, err)
			var verr ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSameNameFoldsCaseAndNormalization(t *testing.T) {
	// "é" precomposed vs "e" + combining acute accent.
	assert.True(t, SameName("Caf\u00e9", "CAFE\u0301"))
	assert.True(t, SameName(" stretch", "Stretch "))
	assert.False(t, SameName("Stretch", "Stretching"))
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Health", " health", "", "Focus", "FOCUS", "Mind"})
	assert.Equal(t, []string{"Health", "Focus", "Mind"}, got)
}

func TestFindDuplicate(t *testing.T) {
	habits := []models.Habit{{ID: 1, Name: "Read"}, {ID: 2, Name: "Walk"}}

	dup, ok := FindDuplicate(habits, "read", 0)
	require.True(t, ok)
	assert.Equal(t, int64(1), dup.ID)

	_, ok = FindDuplicate(habits, "read", 1)
	assert.False(t, ok)
}
