// Package sqlbase implements storage.Ledger on top of database/sql. The
// SQLite and PostgreSQL stores embed it and supply their dialect.
package sqlbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/logger"
	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/storage"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect interface {
	// Placeholders selects "?" or "$N" bind parameters.
	Placeholders() Placeholder
	// IsUniqueViolation reports whether err came from a UNIQUE constraint.
	IsUniqueViolation(err error) bool
}

type Placeholder int

const (
	Question Placeholder = iota
	Dollar
)

// Ledger is the shared SQL implementation. DB is nil until the owning store
// opens it.
type Ledger struct {
	DB      *sql.DB
	Cal     calendar.Calendar
	Dialect Dialect
}

const habitColumns = `id, name, color, icon, frequency, target, created_at,
	reminder_time, reminder_user_name, category, time_of_day`

// rebind rewrites "?" placeholders for the dialect.
func (l *Ledger) rebind(query string) string {
	if l.Dialect.Placeholders() != Dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (l *Ledger) ready() error {
	if l.DB == nil {
		return storage.ErrNotLoaded
	}
	return nil
}

func (l *Ledger) dayMillis(day time.Time) int64 {
	return l.Cal.ToMillis(l.Cal.StartOfDay(day))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeCategory(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode category: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (l *Ledger) scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var frequency string
	var createdAt int64
	var reminderTime, reminderUser, category, timeOfDay sql.NullString

	if err := row.Scan(&h.ID, &h.Name, &h.Color, &h.Icon, &frequency, &h.Target, &createdAt,
		&reminderTime, &reminderUser, &category, &timeOfDay); err != nil {
		return models.Habit{}, err
	}

	if err := json.Unmarshal([]byte(frequency), &h.Frequency); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse frequency of habit %d: %w", h.ID, err)
	}
	if category.Valid && category.String != "" {
		if err := json.Unmarshal([]byte(category.String), &h.Category); err != nil {
			return models.Habit{}, fmt.Errorf("failed to parse category of habit %d: %w", h.ID, err)
		}
	}
	h.CreatedAt = time.UnixMilli(createdAt).In(l.Cal.Location())
	h.ReminderTime = reminderTime.String
	h.ReminderUserName = reminderUser.String
	h.TimeOfDay = models.TimeOfDay(timeOfDay.String)
	return h, nil
}

func (l *Ledger) CreateHabit(ctx context.Context, habit models.Habit) (models.Habit, error) {
	if err := l.ready(); err != nil {
		return models.Habit{}, err
	}

	frequency, err := json.Marshal(habit.Frequency)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to encode frequency: %w", err)
	}
	category, err := encodeCategory(habit.Category)
	if err != nil {
		return models.Habit{}, err
	}
	if habit.CreatedAt.IsZero() {
		habit.CreatedAt = time.Now()
	}

	err = l.DB.QueryRowContext(ctx, l.rebind(`
		INSERT INTO habits (name, color, icon, frequency, target, created_at,
			reminder_time, reminder_user_name, category, time_of_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		habit.Name, habit.Color, habit.Icon, string(frequency), habit.Target, habit.CreatedAt.UnixMilli(),
		nullString(habit.ReminderTime), nullString(habit.ReminderUserName), category, nullString(string(habit.TimeOfDay)),
	).Scan(&habit.ID)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to insert habit: %w", err)
	}

	habit.CreatedAt = time.UnixMilli(habit.CreatedAt.UnixMilli()).In(l.Cal.Location())
	logger.Debug("Created habit", "id", habit.ID, "name", habit.Name)
	return habit, nil
}

func (l *Ledger) GetHabit(ctx context.Context, id int64) (models.Habit, error) {
	if err := l.ready(); err != nil {
		return models.Habit{}, err
	}

	row := l.DB.QueryRowContext(ctx, l.rebind("SELECT "+habitColumns+" FROM habits WHERE id = ?"), id)
	h, err := l.scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
		}
		return models.Habit{}, err
	}
	return h, nil
}

func (l *Ledger) ListHabits(ctx context.Context) ([]models.Habit, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	rows, err := l.DB.QueryContext(ctx, "SELECT "+habitColumns+" FROM habits ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := l.scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (l *Ledger) UpdateHabit(ctx context.Context, habit models.Habit) error {
	if err := l.ready(); err != nil {
		return err
	}

	frequency, err := json.Marshal(habit.Frequency)
	if err != nil {
		return fmt.Errorf("failed to encode frequency: %w", err)
	}
	category, err := encodeCategory(habit.Category)
	if err != nil {
		return err
	}

	res, err := l.DB.ExecContext(ctx, l.rebind(`
		UPDATE habits SET name = ?, color = ?, icon = ?, frequency = ?, target = ?,
			reminder_time = ?, reminder_user_name = ?, category = ?, time_of_day = ?
		WHERE id = ?`),
		habit.Name, habit.Color, habit.Icon, string(frequency), habit.Target,
		nullString(habit.ReminderTime), nullString(habit.ReminderUserName), category, nullString(string(habit.TimeOfDay)),
		habit.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update habit %d: %w", habit.ID, err)
	}
	return requireAffected(res, fmt.Sprintf("habit %d", habit.ID))
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}

func (l *Ledger) DeleteHabit(ctx context.Context, id int64) error {
	if err := l.ready(); err != nil {
		return err
	}

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The foreign key cascades as well; deleting explicitly keeps stores
	// opened without foreign key enforcement free of orphans.
	if _, err := tx.ExecContext(ctx, l.rebind("DELETE FROM completions WHERE habit_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete completions of habit %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, l.rebind("DELETE FROM habits WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete habit %d: %w", id, err)
	}
	if err := requireAffected(res, fmt.Sprintf("habit %d", id)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit habit deletion: %w", err)
	}
	logger.Debug("Deleted habit", "id", id)
	return nil
}

func (l *Ledger) ToggleCompletion(ctx context.Context, habitID int64, day time.Time) (bool, error) {
	if err := l.ready(); err != nil {
		return false, err
	}
	dayMs := l.dayMillis(day)

	completed, err := l.toggle(ctx, habitID, dayMs)
	if err != nil && l.Dialect.IsUniqueViolation(err) {
		// Another writer recorded the same day between our delete and insert;
		// the record exists, so this toggle removes it.
		logger.Debug("Toggle raced an insert, removing existing completion", "habit", habitID, "day", dayMs)
		if _, delErr := l.DB.ExecContext(ctx, l.rebind("DELETE FROM completions WHERE habit_id = ? AND date = ?"), habitID, dayMs); delErr != nil {
			return false, fmt.Errorf("failed to remove completion: %w", delErr)
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logger.Debug("Toggled completion", "habit", habitID, "day", l.Cal.Key(l.Cal.FromMillis(dayMs)), "completed", completed)
	return completed, nil
}

func (l *Ledger) toggle(ctx context.Context, habitID int64, dayMs int64) (bool, error) {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, l.rebind("SELECT 1 FROM habits WHERE id = ?"), habitID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("habit %d: %w", habitID, storage.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up habit %d: %w", habitID, err)
	}

	res, err := tx.ExecContext(ctx, l.rebind("DELETE FROM completions WHERE habit_id = ? AND date = ?"), habitID, dayMs)
	if err != nil {
		return false, fmt.Errorf("failed to remove completion: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	completed := removed == 0
	if completed {
		if _, err := tx.ExecContext(ctx, l.rebind("INSERT INTO completions (habit_id, date, value) VALUES (?, ?, 1)"), habitID, dayMs); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit toggle: %w", err)
	}
	return completed, nil
}

func (l *Ledger) IsCompleted(ctx context.Context, habitID int64, day time.Time) (bool, error) {
	if err := l.ready(); err != nil {
		return false, err
	}

	var n int
	err := l.DB.QueryRowContext(ctx, l.rebind("SELECT COUNT(*) FROM completions WHERE habit_id = ? AND date = ?"),
		habitID, l.dayMillis(day)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *Ledger) GetCompletion(ctx context.Context, habitID int64, day time.Time) (models.Completion, error) {
	if err := l.ready(); err != nil {
		return models.Completion{}, err
	}

	var c models.Completion
	var dateMs int64
	var notes sql.NullString
	err := l.DB.QueryRowContext(ctx, l.rebind(`
		SELECT id, habit_id, date, value, notes FROM completions
		WHERE habit_id = ? AND date = ?`), habitID, l.dayMillis(day)).
		Scan(&c.ID, &c.HabitID, &dateMs, &c.Value, &notes)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Completion{}, fmt.Errorf("completion for habit %d on %s: %w", habitID, l.Cal.Key(day), storage.ErrNotFound)
	}
	if err != nil {
		return models.Completion{}, err
	}

	c.Date = l.Cal.FromMillis(dateMs)
	c.Notes = notes.String
	return c, nil
}

func (l *Ledger) SetCompletionNote(ctx context.Context, habitID int64, day time.Time, note string) error {
	if err := l.ready(); err != nil {
		return err
	}

	res, err := l.DB.ExecContext(ctx, l.rebind("UPDATE completions SET notes = ? WHERE habit_id = ? AND date = ?"),
		nullString(strings.TrimSpace(note)), habitID, l.dayMillis(day))
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("completion for habit %d on %s", habitID, l.Cal.Key(day)))
}

func (l *Ledger) queryDays(ctx context.Context, query string, args ...any) ([]time.Time, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	rows, err := l.DB.QueryContext(ctx, l.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []time.Time{}
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, err
		}
		days = append(days, l.Cal.FromMillis(ms))
	}
	return days, rows.Err()
}

func (l *Ledger) ListCompletionDays(ctx context.Context, habitID int64) ([]time.Time, error) {
	return l.queryDays(ctx, "SELECT date FROM completions WHERE habit_id = ? ORDER BY date DESC", habitID)
}

func (l *Ledger) ListActiveDays(ctx context.Context) ([]time.Time, error) {
	return l.queryDays(ctx, "SELECT DISTINCT date FROM completions ORDER BY date DESC")
}

func (l *Ledger) CountAllCompletions(ctx context.Context) (int, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}

	var n int
	if err := l.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM completions").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (l *Ledger) CountCompletionsInRange(ctx context.Context, start, end time.Time) (map[string]int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	rows, err := l.DB.QueryContext(ctx, l.rebind(`
		SELECT date, COUNT(*) FROM completions
		WHERE date >= ? AND date <= ?
		GROUP BY date`), l.dayMillis(start), l.dayMillis(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ms int64
		var n int
		if err := rows.Scan(&ms, &n); err != nil {
			return nil, err
		}
		counts[l.Cal.Key(l.Cal.FromMillis(ms))] = n
	}
	return counts, rows.Err()
}

func (l *Ledger) DeleteCompletionsForHabit(ctx context.Context, habitID int64) error {
	if err := l.ready(); err != nil {
		return err
	}
	if _, err := l.DB.ExecContext(ctx, l.rebind("DELETE FROM completions WHERE habit_id = ?"), habitID); err != nil {
		return fmt.Errorf("failed to delete completions of habit %d: %w", habitID, err)
	}
	return nil
}

func (l *Ledger) DeleteAllCompletions(ctx context.Context) error {
	if err := l.ready(); err != nil {
		return err
	}
	if _, err := l.DB.ExecContext(ctx, "DELETE FROM completions"); err != nil {
		return fmt.Errorf("failed to delete completions: %w", err)
	}
	return nil
}
