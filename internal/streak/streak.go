// Package streak computes consecutive-day runs from completion days.
//
// One rule applies everywhere: a missed day resets the running count to 0.
// Both the per-habit walk and the global daily streak look back at most
// constants.StreakLookbackDays days from today.
package streak

import (
	"time"

	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/constants"
)

// Result holds the streaks of a single habit.
type Result struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Calculate walks back from today over the lookback window. Current is the
// unbroken run ending today (0 when today is missing); Longest is the
// longest run seen in the window, so Longest >= Current always holds.
// days may be in any order and may contain duplicates or non-bucket times.
func Calculate(cal calendar.Calendar, days []time.Time, today time.Time) Result {
	return calculate(cal, days, today, constants.StreakLookbackDays)
}

func calculate(cal calendar.Calendar, days []time.Time, today time.Time, lookback int) Result {
	if len(days) == 0 {
		return Result{}
	}

	done := keySet(cal, days)

	var res Result
	running := 0
	broken := false
	expected := cal.StartOfDay(today)
	for i := 0; i < lookback; i++ {
		if done[cal.Key(expected)] {
			running++
			if !broken {
				res.Current = running
			}
		} else {
			res.Longest = max(res.Longest, running)
			running = 0
			broken = true
		}
		expected = cal.AddDays(expected, -1)
	}
	res.Longest = max(res.Longest, running)
	return res
}

// Global returns the number of consecutive days ending today on which at
// least one habit was completed. activeDays is the ledger's distinct
// completion days.
func Global(cal calendar.Calendar, activeDays []time.Time, today time.Time) int {
	done := keySet(cal, activeDays)

	count := 0
	expected := cal.StartOfDay(today)
	for count < constants.StreakLookbackDays && done[cal.Key(expected)] {
		count++
		expected = cal.AddDays(expected, -1)
	}
	return count
}

// Best returns the largest Longest across results.
func Best(results ...Result) int {
	best := 0
	for _, r := range results {
		best = max(best, r.Longest)
	}
	return best
}

func keySet(cal calendar.Calendar, days []time.Time) map[string]bool {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[cal.Key(d)] = true
	}
	return set
}
