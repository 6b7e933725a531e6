// Package calendar defines the single calendar every day bucket is computed in.
//
// A day bucket is a time.Time at 00:00 in the calendar's location. Streaks,
// heatmaps and the ledger's uniqueness constraint all assume their inputs went
// through StartOfDay first; mixing raw timestamps with buckets silently breaks
// streak counts.
package calendar

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitchain/internal/constants"
)

// Calendar normalizes timestamps to day buckets in one fixed location.
type Calendar struct {
	loc *time.Location
}

// New returns a calendar in loc. A nil location means time.Local.
func New(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc}
}

// FromTimezone builds a calendar from an IANA timezone name.
// If the timezone is "Local" or empty, it uses the system's local timezone.
func FromTimezone(timezone string) (Calendar, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return Calendar{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return New(loc), nil
}

// Location returns the calendar's location.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// StartOfDay returns midnight of the calendar day containing t.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location())
}

// Today returns the day bucket containing now.
func (c Calendar) Today(now time.Time) time.Time {
	return c.StartOfDay(now)
}

// AddDays moves a day bucket by n calendar days. It steps by calendar date
// rather than 24h so DST transitions keep the result at midnight.
func (c Calendar) AddDays(day time.Time, n int) time.Time {
	d := c.StartOfDay(day)
	return time.Date(d.Year(), d.Month(), d.Day()+n, 0, 0, 0, 0, c.Location())
}

// StartOfWeek returns the Sunday on or before day.
func (c Calendar) StartOfWeek(day time.Time) time.Time {
	d := c.StartOfDay(day)
	return c.AddDays(d, -int(d.Weekday()))
}

// DaysBetween returns the number of calendar days from a to b.
// It is negative when b is before a.
func (c Calendar) DaysBetween(a, b time.Time) int {
	da := c.StartOfDay(a)
	db := c.StartOfDay(b)
	// Compare as UTC dates so DST offsets cancel out.
	ua := time.Date(da.Year(), da.Month(), da.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(db.Year(), db.Month(), db.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// ToMillis returns the storage representation of a day bucket: epoch
// milliseconds of its start.
func (c Calendar) ToMillis(day time.Time) int64 {
	return c.StartOfDay(day).UnixMilli()
}

// FromMillis converts a stored value back to a day bucket.
func (c Calendar) FromMillis(ms int64) time.Time {
	return c.StartOfDay(time.UnixMilli(ms))
}

// Key formats a day bucket as YYYY-MM-DD. Keys are used for day->count maps
// because time.Time values with different locations never compare equal.
func (c Calendar) Key(day time.Time) string {
	return c.StartOfDay(day).Format(constants.DateFormat)
}

// ParseDay parses a date string (YYYY-MM-DD) as a day bucket.
func (c Calendar) ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateFormat, s, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return c.StartOfDay(t), nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == constants.DefaultTimezone {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}
