package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/habitchain/internal/calendar"
	"github.com/julianstephens/habitchain/internal/models"
)

// completionRecord is the on-disk shape of a completion; the day is kept as
// epoch milliseconds to match the SQL schema.
type completionRecord struct {
	ID      int64  `json:"id"`
	HabitID int64  `json:"habit_id"`
	Date    int64  `json:"date"`
	Value   int    `json:"value"`
	Notes   string `json:"notes,omitempty"`
}

type Store struct {
	Version          int                `json:"version"`
	NextHabitID      int64              `json:"next_habit_id"`
	NextCompletionID int64              `json:"next_completion_id"`
	Habits           []models.Habit     `json:"habits"`
	Completions      []completionRecord `json:"completions"`
}

// JSONStore keeps the ledger in memory and, when it has a path, persists it
// as a JSON document after every mutation. An empty path keeps everything in
// memory, which makes it a convenient fake in tests.
type JSONStore struct {
	mu    sync.RWMutex
	path  string
	cal   calendar.Calendar
	store *Store
}

func NewJSONStore(configPath string, cal calendar.Calendar) *JSONStore {
	return &JSONStore{
		path: configPath,
		cal:  cal,
	}
}

// NewMemoryStore returns an initialized in-memory ledger.
func NewMemoryStore(cal calendar.Calendar) *JSONStore {
	s := NewJSONStore("", cal)
	s.store = newStore()
	return s
}

func newStore() *Store {
	return &Store{
		Version:          1,
		NextHabitID:      1,
		NextCompletionID: 1,
		Habits:           []models.Habit{},
		Completions:      []completionRecord{},
	}
}

func (s *JSONStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		s.store = newStore()
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	st := newStore()
	if err := s.save(st); err != nil {
		return err
	}
	s.store = st
	return nil
}

func (s *JSONStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		if s.store == nil {
			s.store = newStore()
		}
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotInitialized
		}
		return fmt.Errorf("failed to read storage file: %w", err)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return fmt.Errorf("failed to parse storage file: %w", err)
	}
	if store.NextHabitID < 1 {
		store.NextHabitID = 1
	}
	if store.NextCompletionID < 1 {
		store.NextCompletionID = 1
	}
	s.store = &store
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save(st *Store) error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}

	// Write to a sibling temp file and rename so a crash never leaves a torn file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}

// clone copies the document deeply enough for a mutation to edit the copy.
func (st *Store) clone() *Store {
	c := *st
	c.Habits = append([]models.Habit{}, st.Habits...)
	c.Completions = append([]completionRecord{}, st.Completions...)
	return &c
}

// mutate applies fn to a copy of the document and installs the copy only
// once it has been saved, so a failed write leaves memory matching disk.
// Callers hold s.mu.
func (s *JSONStore) mutate(fn func(st *Store) error) error {
	if err := s.ready(); err != nil {
		return err
	}
	next := s.store.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.store = next
	return nil
}

func (s *JSONStore) ready() error {
	if s.store == nil {
		return ErrNotLoaded
	}
	return nil
}

func habitIndex(st *Store, id int64) int {
	for i, h := range st.Habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func completionIndex(st *Store, habitID int64, dayMs int64) int {
	for i, c := range st.Completions {
		if c.HabitID == habitID && c.Date == dayMs {
			return i
		}
	}
	return -1
}

func (s *JSONStore) dayMillis(day time.Time) int64 {
	return s.cal.ToMillis(s.cal.StartOfDay(day))
}

func (s *JSONStore) CreateHabit(ctx context.Context, habit models.Habit) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if habit.CreatedAt.IsZero() {
		habit.CreatedAt = time.Now()
	}
	habit.CreatedAt = time.UnixMilli(habit.CreatedAt.UnixMilli()).In(s.cal.Location())
	habit.Category = append([]string(nil), habit.Category...)

	err := s.mutate(func(st *Store) error {
		habit.ID = st.NextHabitID
		st.NextHabitID++
		st.Habits = append(st.Habits, habit)
		return nil
	})
	if err != nil {
		return models.Habit{}, err
	}
	return habit, nil
}

func (s *JSONStore) GetHabit(ctx context.Context, id int64) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return models.Habit{}, err
	}

	i := habitIndex(s.store, id)
	if i < 0 {
		return models.Habit{}, fmt.Errorf("habit %d: %w", id, ErrNotFound)
	}
	return s.store.Habits[i], nil
}

func (s *JSONStore) ListHabits(ctx context.Context) ([]models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	habits := make([]models.Habit, len(s.store.Habits))
	copy(habits, s.store.Habits)
	sort.SliceStable(habits, func(i, j int) bool {
		if !habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].CreatedAt.After(habits[j].CreatedAt)
		}
		return habits[i].ID > habits[j].ID
	})
	return habits, nil
}

func (s *JSONStore) UpdateHabit(ctx context.Context, habit models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(st *Store) error {
		i := habitIndex(st, habit.ID)
		if i < 0 {
			return fmt.Errorf("habit %d: %w", habit.ID, ErrNotFound)
		}
		// created_at is immutable once stored
		habit.CreatedAt = st.Habits[i].CreatedAt
		st.Habits[i] = habit
		return nil
	})
}

func (s *JSONStore) DeleteHabit(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(st *Store) error {
		i := habitIndex(st, id)
		if i < 0 {
			return fmt.Errorf("habit %d: %w", id, ErrNotFound)
		}
		st.Habits = append(st.Habits[:i], st.Habits[i+1:]...)
		removeCompletions(st, func(c completionRecord) bool { return c.HabitID == id })
		return nil
	})
}

func removeCompletions(st *Store, match func(completionRecord) bool) {
	kept := st.Completions[:0]
	for _, c := range st.Completions {
		if !match(c) {
			kept = append(kept, c)
		}
	}
	st.Completions = kept
}

func (s *JSONStore) ToggleCompletion(ctx context.Context, habitID int64, day time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dayMs := s.dayMillis(day)
	completed := false
	err := s.mutate(func(st *Store) error {
		if habitIndex(st, habitID) < 0 {
			return fmt.Errorf("habit %d: %w", habitID, ErrNotFound)
		}
		if i := completionIndex(st, habitID, dayMs); i >= 0 {
			st.Completions = append(st.Completions[:i], st.Completions[i+1:]...)
			return nil
		}
		st.Completions = append(st.Completions, completionRecord{
			ID:      st.NextCompletionID,
			HabitID: habitID,
			Date:    dayMs,
			Value:   1,
		})
		st.NextCompletionID++
		completed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return completed, nil
}

func (s *JSONStore) IsCompleted(ctx context.Context, habitID int64, day time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return false, err
	}
	return completionIndex(s.store, habitID, s.dayMillis(day)) >= 0, nil
}

func (s *JSONStore) GetCompletion(ctx context.Context, habitID int64, day time.Time) (models.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return models.Completion{}, err
	}

	i := completionIndex(s.store, habitID, s.dayMillis(day))
	if i < 0 {
		return models.Completion{}, fmt.Errorf("completion for habit %d on %s: %w", habitID, s.cal.Key(day), ErrNotFound)
	}
	c := s.store.Completions[i]
	return models.Completion{
		ID:      c.ID,
		HabitID: c.HabitID,
		Date:    s.cal.FromMillis(c.Date),
		Value:   c.Value,
		Notes:   c.Notes,
	}, nil
}

func (s *JSONStore) SetCompletionNote(ctx context.Context, habitID int64, day time.Time, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(st *Store) error {
		i := completionIndex(st, habitID, s.dayMillis(day))
		if i < 0 {
			return fmt.Errorf("completion for habit %d on %s: %w", habitID, s.cal.Key(day), ErrNotFound)
		}
		st.Completions[i].Notes = strings.TrimSpace(note)
		return nil
	})
}

func (s *JSONStore) ListCompletionDays(ctx context.Context, habitID int64) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	var millis []int64
	for _, c := range s.store.Completions {
		if c.HabitID == habitID {
			millis = append(millis, c.Date)
		}
	}
	return s.descendingDays(millis), nil
}

func (s *JSONStore) ListActiveDays(ctx context.Context) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var millis []int64
	for _, c := range s.store.Completions {
		if !seen[c.Date] {
			seen[c.Date] = true
			millis = append(millis, c.Date)
		}
	}
	return s.descendingDays(millis), nil
}

func (s *JSONStore) descendingDays(millis []int64) []time.Time {
	sort.Slice(millis, func(i, j int) bool { return millis[i] > millis[j] })
	days := make([]time.Time, 0, len(millis))
	for _, ms := range millis {
		days = append(days, s.cal.FromMillis(ms))
	}
	return days
}

func (s *JSONStore) CountAllCompletions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return 0, err
	}
	return len(s.store.Completions), nil
}

func (s *JSONStore) CountCompletionsInRange(ctx context.Context, start, end time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	lo, hi := s.dayMillis(start), s.dayMillis(end)
	counts := make(map[string]int)
	for _, c := range s.store.Completions {
		if c.Date >= lo && c.Date <= hi {
			counts[s.cal.Key(s.cal.FromMillis(c.Date))]++
		}
	}
	return counts, nil
}

func (s *JSONStore) DeleteCompletionsForHabit(ctx context.Context, habitID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(st *Store) error {
		removeCompletions(st, func(c completionRecord) bool { return c.HabitID == habitID })
		return nil
	})
}

func (s *JSONStore) DeleteAllCompletions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(func(st *Store) error {
		st.Completions = []completionRecord{}
		return nil
	})
}

func (s *JSONStore) GetConfigPath() string {
	if s.path == "" {
		return "memory"
	}
	return s.path
}
