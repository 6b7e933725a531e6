package tracker

import (
	"context"

	"github.com/julianstephens/habitchain/internal/achievement"
	"github.com/julianstephens/habitchain/internal/models"
	"github.com/julianstephens/habitchain/internal/streak"
)

// Stats is the overview shown on the stats screen.
type Stats struct {
	TotalCompletions int  `json:"total_completions"`
	TotalHabits      int  `json:"total_habits"`
	CompletedToday   int  `json:"completed_today"`
	GlobalStreak     int  `json:"global_streak"`
	BestStreak       int  `json:"best_streak"`
	UnlockedBadges   int  `json:"unlocked_badges"`
	Degraded         bool `json:"degraded,omitempty"`
}

// Stats aggregates the overview. Unreadable parts count as zero and set
// Degraded.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	snap := s.snapshot(ctx)
	st.TotalCompletions = snap.Completions
	st.BestStreak = snap.BestStreak
	st.Degraded = snap.Degraded

	today := s.Today()
	if habits, err := s.ledger.ListHabits(ctx); err != nil {
		readFailed("list habits", err)
		st.Degraded = true
	} else {
		st.TotalHabits = len(habits)
	}

	if counts, err := s.ledger.CountCompletionsInRange(ctx, today, today); err != nil {
		readFailed("count completions today", err)
		st.Degraded = true
	} else {
		st.CompletedToday = counts[s.cal.Key(today)]
	}

	if days, err := s.ledger.ListActiveDays(ctx); err != nil {
		readFailed("list active days", err)
		st.Degraded = true
	} else {
		st.GlobalStreak = streak.Global(s.cal, days, today)
	}

	for _, b := range achievement.Catalog(snap) {
		if b.Unlocked {
			st.UnlockedBadges++
		}
	}
	return st
}

// HabitSummary is a habit with its state for today.
type HabitSummary struct {
	Habit          models.Habit  `json:"habit"`
	CompletedToday bool          `json:"completed_today"`
	Streak         streak.Result `json:"streak"`
}

// Summaries lists habits newest first with today's state and streaks.
// Listing the habits themselves is not fail-open: an empty list would be
// indistinguishable from having no habits.
func (s *Service) Summaries(ctx context.Context) ([]HabitSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.ledger.ListHabits(ctx)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	out := make([]HabitSummary, 0, len(habits))
	for _, h := range habits {
		sum := HabitSummary{Habit: h}
		days, err := s.ledger.ListCompletionDays(ctx, h.ID)
		if err != nil {
			readFailed("list completion days", err, "habit", h.ID)
		} else {
			sum.Streak = streak.Calculate(s.cal, days, today)
			key := s.cal.Key(today)
			for _, d := range days {
				if s.cal.Key(d) == key {
					sum.CompletedToday = true
					break
				}
			}
		}
		out = append(out, sum)
	}
	return out, nil
}
