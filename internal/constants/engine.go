package constants

// StreakLookbackDays bounds how far back the streak walk looks from today.
const StreakLookbackDays = 730

// Heatmap geometry. The window covers HeatmapWindowDays before today and the
// grid always holds HeatmapWeeks full weeks.
const (
	HeatmapWindowDays = 365
	HeatmapWeeks      = 53
	DaysPerWeek       = 7
	HeatmapSlots      = HeatmapWeeks * DaysPerWeek
	// HeatmapMaxIntensity is the top bucket; counts at or above it share it.
	HeatmapMaxIntensity = 4
)

// Thresholds for both badge tracks, ascending.
var (
	CompletionThresholds = []int{1, 10, 20, 50, 100, 300}
	StreakThresholds     = []int{1, 10, 20, 50, 100, 300}
)

// Habit defaults, matching the schema column defaults.
const (
	DefaultHabitColor  = "#3B82F6"
	DefaultHabitIcon   = "🎯"
	DefaultHabitTarget = 1
	DefaultTimezone    = "Local"
)
