// Package heatmap lays completion counts out on a fixed 53-week by 7-day
// grid, column-major, weeks starting on Sunday.
package heatmap

import (
	"time"

	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/constants"
)

// Cell is one day slot of the grid.
type Cell struct {
	Day       time.Time `json:"day"`
	Count     int       `json:"count"`
	Intensity int       `json:"intensity"`
	Completed bool      `json:"completed"`
	// Future marks slots after today in the last column.
	Future bool `json:"future,omitempty"`
}

// Grid holds exactly constants.HeatmapSlots cells. Slot i sits at column
// i/7 and row i%7; row 0 is Sunday.
type Grid struct {
	Start time.Time
	Today time.Time
	Cells [constants.HeatmapSlots]Cell
	cal   calendar.Calendar
}

// Window returns the inclusive day range whose counts feed the grid.
func Window(cal calendar.Calendar, today time.Time) (start, end time.Time) {
	end = cal.StartOfDay(today)
	return cal.AddDays(end, -constants.HeatmapWindowDays), end
}

// GridStart returns the first slot's day: the Sunday 52 weeks before the
// start of today's week. Today therefore always lands in the last column.
// This equals StartOfWeek(today-365) on every weekday except Sunday, where
// that formula would start a week earlier and push today off the grid;
// here the grid keeps today and drops today-365 instead.
func GridStart(cal calendar.Calendar, today time.Time) time.Time {
	return cal.AddDays(cal.StartOfWeek(today), -(constants.HeatmapWeeks-1)*constants.DaysPerWeek)
}

// Intensity maps a day's completion count to a bucket in [0, 4].
func Intensity(count int) int {
	switch {
	case count <= 0:
		return 0
	case count >= constants.HeatmapMaxIntensity:
		return constants.HeatmapMaxIntensity
	default:
		return count
	}
}

func newGrid(cal calendar.Calendar, today time.Time, fill func(day time.Time, key string) Cell) Grid {
	today = cal.StartOfDay(today)
	g := Grid{Start: GridStart(cal, today), Today: today, cal: cal}

	for i := range g.Cells {
		day := cal.AddDays(g.Start, i)
		c := fill(day, cal.Key(day))
		c.Day = day
		c.Future = day.After(today)
		g.Cells[i] = c
	}
	return g
}

// Aggregate builds the all-habits grid from day-key counts.
func Aggregate(cal calendar.Calendar, counts map[string]int, today time.Time) Grid {
	return newGrid(cal, today, func(_ time.Time, key string) Cell {
		n := counts[key]
		return Cell{Count: n, Intensity: Intensity(n), Completed: n > 0}
	})
}

// HabitGrid builds a binary grid for one habit from its completion days.
func HabitGrid(cal calendar.Calendar, days []time.Time, today time.Time) Grid {
	done := make(map[string]bool, len(days))
	for _, d := range days {
		done[cal.Key(d)] = true
	}
	return newGrid(cal, today, func(_ time.Time, key string) Cell {
		if done[key] {
			return Cell{Count: 1, Intensity: 1, Completed: true}
		}
		return Cell{}
	})
}

// Locate returns the column and row of day, and false when day is off the grid.
func (g Grid) Locate(day time.Time) (col, row int, ok bool) {
	i := g.cal.DaysBetween(g.Start, day)
	if i < 0 || i >= constants.HeatmapSlots {
		return 0, 0, false
	}
	return i / constants.DaysPerWeek, i % constants.DaysPerWeek, true
}

// At returns the cell at column col, row row.
func (g Grid) At(col, row int) Cell {
	return g.Cells[col*constants.DaysPerWeek+row]
}

// TodayCell returns today's slot.
func (g Grid) TodayCell() Cell {
	col, row, _ := g.Locate(g.Today)
	return g.At(col, row)
}

// Total sums the counts of every slot.
func (g Grid) Total() int {
	total := 0
	for _, c := range g.Cells {
		total += c.Count
	}
	return total
}

// ActiveDays counts slots with at least one completion.
func (g Grid) ActiveDays() int {
	n := 0
	for _, c := range g.Cells {
		if c.Completed {
			n++
		}
	}
	return n
}
