package models

import "time"

type TimeOfDay string

const (
	TimeOfDayNone      TimeOfDay = ""
	TimeOfDayMorning   TimeOfDay = "Morning"
	TimeOfDayAfternoon TimeOfDay = "Afternoon"
	TimeOfDayEvening   TimeOfDay = "Evening"
	TimeOfDayNight     TimeOfDay = "Night"
)

func (t TimeOfDay) IsValid() bool {
	switch t {
	case TimeOfDayNone, TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening, TimeOfDayNight:
		return true
	default:
		return false
	}
}

// Habit represents a recurring practice to track
type Habit struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Color            string    `json:"color"`
	Icon             string    `json:"icon"`
	Frequency        Frequency `json:"frequency"`
	Target           int       `json:"target"`
	CreatedAt        time.Time `json:"created_at"`
	ReminderTime     string    `json:"reminder_time,omitempty"` // HH:MM format
	ReminderUserName string    `json:"reminder_user_name,omitempty"`
	Category         []string  `json:"category,omitempty"`
	TimeOfDay        TimeOfDay `json:"time_of_day,omitempty"`
}

// Completion records that a habit was done on one calendar day. Date is
// always a day bucket; there is at most one Completion per (HabitID, Date).
type Completion struct {
	ID      int64     `json:"id"`
	HabitID int64     `json:"habit_id"`
	Date    time.Time `json:"date"`
	Value   int       `json:"value"`
	Notes   string    `json:"notes,omitempty"`
}
