// Package tracker is the engine facade the host surfaces talk to. It pairs
// ledger mutations with before/after achievement snapshots and turns ledger
// read failures into zero values so a storage hiccup never takes down a view.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/habitchain/internal/achievement"
	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/heatmap"
	"github.com/julianstephens/habitchain/internal/logger"
	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/storage"
	"github.com/julianstephens/habitchain/internal/streak"
	"github.com/julianstephens/habitchain/internal/validation"
)

// ErrDuplicateName is returned when a habit name collides with an existing one.
var ErrDuplicateName = errors.New("a habit with this name already exists")

// Service serializes every operation on one mutex so a toggle and the
// snapshots around it are never interleaved with another writer.
type Service struct {
	mu     sync.Mutex
	ledger storage.Ledger
	cal    calendar.Calendar
	now    func() time.Time
	queue  *achievement.Queue
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithQueue shares an unlock queue with a presenter.
func WithQueue(q *achievement.Queue) Option {
	return func(s *Service) { s.queue = q }
}

func New(ledger storage.Ledger, cal calendar.Calendar, opts ...Option) *Service {
	s := &Service{
		ledger: ledger,
		cal:    cal,
		now:    time.Now,
		queue:  achievement.NewQueue(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calendar returns the calendar day buckets are computed in.
func (s *Service) Calendar() calendar.Calendar { return s.cal }

// Queue returns the queue crossed badges are pushed to.
func (s *Service) Queue() *achievement.Queue { return s.queue }

// Today returns the current day bucket.
func (s *Service) Today() time.Time {
	return s.cal.Today(s.now())
}

// readFailed logs a swallowed read error.
func readFailed(op string, err error, keyvals ...interface{}) {
	logger.Warn("Ledger read failed, using empty result", append([]interface{}{"component", "tracker", "op", op, "error", err}, keyvals...)...)
}

// ToggleResult is the outcome of a toggle.
type ToggleResult struct {
	Completed bool
	// Unlocks are the badges this toggle earned, already queued.
	Unlocks []achievement.Unlock
}

// ToggleCompletion flips habitID's completion on day. When the toggle
// records a completion, the achievement snapshots taken around it are
// diffed and any crossed badges are queued. Errors from the ledger are
// returned; nothing is queued on failure.
func (s *Service) ToggleCompletion(ctx context.Context, habitID int64, day time.Time) (ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pre := s.snapshot(ctx)

	completed, err := s.ledger.ToggleCompletion(ctx, habitID, day)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("failed to toggle habit %d on %s: %w", habitID, s.cal.Key(day), err)
	}
	res := ToggleResult{Completed: completed}
	if !completed {
		return res, nil
	}

	post := s.snapshot(ctx)
	at := s.now()
	for _, b := range achievement.DetectCrossings(pre, post) {
		res.Unlocks = append(res.Unlocks, achievement.NewUnlock(b, at))
	}
	if len(res.Unlocks) > 0 {
		s.queue.Push(res.Unlocks...)
		logger.Info("Achievements unlocked", "count", len(res.Unlocks), "habit", habitID)
	}
	return res, nil
}

// ToggleToday toggles habitID on the current day.
func (s *Service) ToggleToday(ctx context.Context, habitID int64) (ToggleResult, error) {
	return s.ToggleCompletion(ctx, habitID, s.Today())
}

// DequeueNextAchievement pops the oldest unacknowledged unlock.
func (s *Service) DequeueNextAchievement() (achievement.Unlock, bool) {
	return s.queue.Pop()
}

// DetectCrossings diffs two snapshots.
func (s *Service) DetectCrossings(pre, post achievement.Snapshot) []achievement.Badge {
	return achievement.DetectCrossings(pre, post)
}

// Snapshot reads the counters both badge tracks are measured against.
func (s *Service) Snapshot(ctx context.Context) achievement.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(ctx)
}

func (s *Service) snapshot(ctx context.Context) achievement.Snapshot {
	var snap achievement.Snapshot

	count, err := s.ledger.CountAllCompletions(ctx)
	if err != nil {
		readFailed("count completions", err)
		snap.Degraded = true
	}
	snap.Completions = count

	best, ok := s.bestStreak(ctx)
	snap.BestStreak = best
	snap.Degraded = snap.Degraded || !ok
	return snap
}

// bestStreak returns the longest streak across all habits and whether
// every habit could be read.
func (s *Service) bestStreak(ctx context.Context) (int, bool) {
	habits, err := s.ledger.ListHabits(ctx)
	if err != nil {
		readFailed("list habits", err)
		return 0, false
	}

	today := s.Today()
	ok := true
	best := 0
	for _, h := range habits {
		days, err := s.ledger.ListCompletionDays(ctx, h.ID)
		if err != nil {
			readFailed("list completion days", err, "habit", h.ID)
			ok = false
			continue
		}
		best = max(best, streak.Calculate(s.cal, days, today).Longest)
	}
	return best, ok
}

// BestStreak returns the longest streak across all habits.
func (s *Service) BestStreak(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	best, _ := s.bestStreak(ctx)
	return best
}

// CurrentAndLongestStreak returns habitID's streaks, or zeros when the
// ledger cannot be read.
func (s *Service) CurrentAndLongestStreak(ctx context.Context, habitID int64) streak.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.habitStreak(ctx, habitID)
}

func (s *Service) habitStreak(ctx context.Context, habitID int64) streak.Result {
	days, err := s.ledger.ListCompletionDays(ctx, habitID)
	if err != nil {
		readFailed("list completion days", err, "habit", habitID)
		return streak.Result{}
	}
	return streak.Calculate(s.cal, days, s.Today())
}

// HeatmapGrid returns the all-habits grid anchored at today. An unreadable
// ledger yields an empty grid of the same shape.
func (s *Service) HeatmapGrid(ctx context.Context) heatmap.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.Today()
	start, end := heatmap.Window(s.cal, today)
	counts, err := s.ledger.CountCompletionsInRange(ctx, start, end)
	if err != nil {
		readFailed("count completions in range", err)
		counts = nil
	}
	return heatmap.Aggregate(s.cal, counts, today)
}

// HabitHeatmap returns habitID's binary grid anchored at today.
func (s *Service) HabitHeatmap(ctx context.Context, habitID int64) heatmap.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.ledger.ListCompletionDays(ctx, habitID)
	if err != nil {
		readFailed("list completion days", err, "habit", habitID)
		days = nil
	}
	return heatmap.HabitGrid(s.cal, days, s.Today())
}

// Achievements lists every badge with its unlocked state.
func (s *Service) Achievements(ctx context.Context) []achievement.Status {
	return achievement.Catalog(s.Snapshot(ctx))
}

// IsCompleted reports whether habitID was completed on day; false when the
// ledger cannot be read.
func (s *Service) IsCompleted(ctx context.Context, habitID int64, day time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	done, err := s.ledger.IsCompleted(ctx, habitID, day)
	if err != nil {
		readFailed("is completed", err, "habit", habitID)
		return false
	}
	return done
}

// validateHabit normalizes h and rejects names already used by another habit.
func (s *Service) validateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	h, err := validation.PrepareHabit(h)
	if err != nil {
		return models.Habit{}, err
	}

	existing, err := s.ledger.ListHabits(ctx)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to check for duplicate names: %w", err)
	}
	if dup, found := validation.FindDuplicate(existing, h.Name, h.ID); found {
		return models.Habit{}, fmt.Errorf("%w: %q (id %d)", ErrDuplicateName, dup.Name, dup.ID)
	}
	return h, nil
}

// CreateHabit validates and stores a new habit.
func (s *Service) CreateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.ID = 0
	h, err := s.validateHabit(ctx, h)
	if err != nil {
		return models.Habit{}, err
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.now()
	}
	return s.ledger.CreateHabit(ctx, h)
}

// UpdateHabit validates and stores changes to an existing habit.
func (s *Service) UpdateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.validateHabit(ctx, h)
	if err != nil {
		return models.Habit{}, err
	}
	if err := s.ledger.UpdateHabit(ctx, h); err != nil {
		return models.Habit{}, err
	}
	return s.ledger.GetHabit(ctx, h.ID)
}

func (s *Service) GetHabit(ctx context.Context, id int64) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.GetHabit(ctx, id)
}

func (s *Service) ListHabits(ctx context.Context) ([]models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ListHabits(ctx)
}

// DeleteHabit removes a habit and all of its completions.
func (s *Service) DeleteHabit(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.DeleteHabit(ctx, id); err != nil {
		return fmt.Errorf("failed to delete habit %d: %w", id, err)
	}
	return nil
}

// ClearCompletions removes every completion of every habit.
func (s *Service) ClearCompletions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.DeleteAllCompletions(ctx)
}

// ClearHabitCompletions removes every completion of one habit.
func (s *Service) ClearHabitCompletions(ctx context.Context, habitID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ledger.GetHabit(ctx, habitID); err != nil {
		return err
	}
	return s.ledger.DeleteCompletionsForHabit(ctx, habitID)
}

// SetNote attaches a note to an existing completion.
func (s *Service) SetNote(ctx context.Context, habitID int64, day time.Time, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.SetCompletionNote(ctx, habitID, day, note)
}

func (s *Service) GetCompletion(ctx context.Context, habitID int64, day time.Time) (models.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.GetCompletion(ctx, habitID, day)
}
