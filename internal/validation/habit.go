package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/julianstephens/habitchain/internal/constants"
	"github.com/julianstephens/habitchain/internal/models"
)

// ValidationError reports a single rejected habit field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var folder = cases.Fold()

// NormalizeName trims a habit name and puts it in NFC so visually identical
// names typed on different keyboards compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// SameName reports whether two habit names collide, ignoring case.
func SameName(a, b string) bool {
	return folder.String(NormalizeName(a)) == folder.String(NormalizeName(b))
}

// NormalizeTags trims, NFC-normalizes and deduplicates category tags,
// keeping the first spelling of each tag.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		tag = NormalizeName(tag)
		if tag == "" {
			continue
		}
		key := folder.String(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}

// PrepareHabit fills defaults and normalizes text fields, then validates.
// The returned habit is what should be written to storage.
func PrepareHabit(h models.Habit) (models.Habit, error) {
	h.Name = NormalizeName(h.Name)
	h.Color = strings.TrimSpace(h.Color)
	h.Icon = strings.TrimSpace(h.Icon)
	h.ReminderTime = strings.TrimSpace(h.ReminderTime)
	h.ReminderUserName = strings.TrimSpace(h.ReminderUserName)
	h.Category = NormalizeTags(h.Category)

	if h.Color == "" {
		h.Color = constants.DefaultHabitColor
	}
	if h.Icon == "" {
		h.Icon = constants.DefaultHabitIcon
	}
	if h.Target == 0 {
		h.Target = constants.DefaultHabitTarget
	}
	if h.Frequency.IsZero() {
		h.Frequency = models.Daily()
	}

	return h, ValidateHabit(h)
}

// ValidateHabit checks a habit without modifying it.
func ValidateHabit(h models.Habit) error {
	if NormalizeName(h.Name) == "" {
		return ValidationError{Field: "name", Message: "must not be empty"}
	}
	if h.Target < 1 {
		return ValidationError{Field: "target", Message: fmt.Sprintf("must be a positive integer, got %d", h.Target)}
	}
	if h.Color != "" && !hexColor.MatchString(h.Color) {
		return ValidationError{Field: "color", Message: fmt.Sprintf("%q is not a hex color", h.Color)}
	}
	if err := h.Frequency.Validate(); err != nil {
		return ValidationError{Field: "frequency", Message: err.Error()}
	}
	if !h.TimeOfDay.IsValid() {
		return ValidationError{Field: "time of day", Message: fmt.Sprintf("%q is not one of Morning, Afternoon, Evening, Night", h.TimeOfDay)}
	}
	if h.ReminderTime != "" {
		if _, err := time.Parse(constants.TimeFormat, h.ReminderTime); err != nil {
			return ValidationError{Field: "reminder time", Message: fmt.Sprintf("%q is not HH:MM", h.ReminderTime)}
		}
	}
	return nil
}

// FindDuplicate returns the habit whose name collides with name, skipping
// the habit with id exclude.
func FindDuplicate(habits []models.Habit, name string, exclude int64) (models.Habit, bool) {
	for _, h := range habits {
		if h.ID != exclude && SameName(h.Name, name) {
			return h, true
		}
	}
	return models.Habit{}, false
}
