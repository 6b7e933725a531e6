package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

type FrequencyKind string

const (
	FrequencyDaily    FrequencyKind = "daily"
	FrequencyOnce     FrequencyKind = "once"
	FrequencyWeekdays FrequencyKind = "weekdays"
)

// Frequency is a tagged variant: Daily, Once, or an explicit weekday set.
// Days is only meaningful for FrequencyWeekdays.
//
// The JSON form is "daily", "once", or an array of weekday tokens such as
// ["mon","wed"]; it is stored verbatim in the habits.frequency column.
type Frequency struct {
	Kind FrequencyKind
	Days []time.Weekday
}

func Daily() Frequency { return Frequency{Kind: FrequencyDaily} }

func Once() Frequency { return Frequency{Kind: FrequencyOnce} }

// OnWeekdays builds a weekday-set frequency. Duplicates are dropped and the
// days are kept in Sunday-first order.
func OnWeekdays(days ...time.Weekday) Frequency {
	seen := make(map[time.Weekday]bool, len(days))
	var out []time.Weekday
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return Frequency{Kind: FrequencyWeekdays, Days: out}
}

func (f Frequency) IsZero() bool { return f.Kind == "" }

func (f Frequency) Validate() error {
	switch f.Kind {
	case FrequencyDaily, FrequencyOnce:
		if len(f.Days) > 0 {
			return fmt.Errorf("frequency %q cannot carry weekdays", f.Kind)
		}
		return nil
	case FrequencyWeekdays:
		if len(f.Days) == 0 {
			return fmt.Errorf("weekday frequency needs at least one day")
		}
		return nil
	default:
		return fmt.Errorf("unknown frequency %q", f.Kind)
	}
}

// String formats a frequency into a human-readable string
func (f Frequency) String() string {
	switch f.Kind {
	case FrequencyDaily:
		return "daily"
	case FrequencyOnce:
		return "once"
	case FrequencyWeekdays:
		tokens := make([]string, 0, len(f.Days))
		for _, d := range f.Days {
			tokens = append(tokens, weekdayToken(d))
		}
		return strings.Join(tokens, ",")
	default:
		return "unknown"
	}
}

func (f Frequency) MarshalJSON() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Kind == FrequencyWeekdays {
		tokens := make([]string, 0, len(f.Days))
		for _, d := range OnWeekdays(f.Days...).Days {
			tokens = append(tokens, weekdayToken(d))
		}
		return json.Marshal(tokens)
	}
	return json.Marshal(string(f.Kind))
}

func (f *Frequency) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch FrequencyKind(strings.ToLower(strings.TrimSpace(s))) {
		case FrequencyDaily:
			*f = Daily()
		case FrequencyOnce:
			*f = Once()
		default:
			return fmt.Errorf("unknown frequency %q", s)
		}
		return nil
	}

	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return fmt.Errorf("frequency must be a string or an array of weekdays: %w", err)
	}
	days, err := ParseWeekdays(tokens)
	if err != nil {
		return err
	}
	parsed := OnWeekdays(days...)
	if err := parsed.Validate(); err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFrequency accepts "daily", "once" or a comma-separated weekday list.
func ParseFrequency(s string) (Frequency, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	switch FrequencyKind(trimmed) {
	case FrequencyDaily, "":
		return Daily(), nil
	case FrequencyOnce:
		return Once(), nil
	}
	days, err := ParseWeekdays(strings.Split(trimmed, ","))
	if err != nil {
		return Frequency{}, err
	}
	f := OnWeekdays(days...)
	return f, f.Validate()
}

var weekdayTokens = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// ParseWeekdays parses weekday tokens (short or full English names).
func ParseWeekdays(tokens []string) ([]time.Weekday, error) {
	var weekdays []time.Weekday
	for _, tok := range tokens {
		tok = strings.TrimSpace(strings.ToLower(tok))
		if tok == "" {
			continue
		}
		wd, ok := weekdayTokens[tok]
		if !ok {
			return nil, fmt.Errorf("invalid weekday: %s", tok)
		}
		weekdays = append(weekdays, wd)
	}
	return weekdays, nil
}

func weekdayToken(d time.Weekday) string {
	return strings.ToLower(d.String()[:3])
}
