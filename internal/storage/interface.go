package storage

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/habitchain/internal/models"
)

var (
	// ErrNotFound is returned when a habit or completion does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotInitialized is returned by Load when the backing store was never created.
	ErrNotInitialized = errors.New("storage not initialized")
	// ErrNotLoaded is returned when a ledger is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
)

// Ledger is the single source of truth for habits and their completions.
//
// Every day argument is normalized to its day bucket with the ledger's
// calendar before use, so callers may pass any instant within the day.
// A (habit, day) pair has at most one completion; the backing store
// enforces this as a uniqueness constraint.
type Ledger interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Habits
	CreateHabit(ctx context.Context, habit models.Habit) (models.Habit, error)
	GetHabit(ctx context.Context, id int64) (models.Habit, error)
	// ListHabits returns habits newest first.
	ListHabits(ctx context.Context) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, habit models.Habit) error
	// DeleteHabit removes the habit and every completion it owns.
	DeleteHabit(ctx context.Context, id int64) error

	// Completions
	// ToggleCompletion deletes the completion for (habitID, day) if present,
	// otherwise records one with value 1. It reports the resulting state.
	ToggleCompletion(ctx context.Context, habitID int64, day time.Time) (completed bool, err error)
	IsCompleted(ctx context.Context, habitID int64, day time.Time) (bool, error)
	GetCompletion(ctx context.Context, habitID int64, day time.Time) (models.Completion, error)
	SetCompletionNote(ctx context.Context, habitID int64, day time.Time, note string) error
	// ListCompletionDays returns the habit's completed days, descending.
	ListCompletionDays(ctx context.Context, habitID int64) ([]time.Time, error)
	// ListActiveDays returns every day with at least one completion on any habit, descending.
	ListActiveDays(ctx context.Context) ([]time.Time, error)
	CountAllCompletions(ctx context.Context) (int, error)
	// CountCompletionsInRange maps day keys to completion counts for days in
	// [start, end]. Days without completions are absent.
	CountCompletionsInRange(ctx context.Context, start, end time.Time) (map[string]int, error)
	DeleteCompletionsForHabit(ctx context.Context, habitID int64) error
	DeleteAllCompletions(ctx context.Context) error

	// Utils
	GetConfigPath() string
}
