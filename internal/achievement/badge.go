// Package achievement detects badge thresholds crossed by a ledger mutation
// and queues the resulting unlocks for one-at-a-time presentation.
package achievement

import (
	"fmt"

	"github.com/julianstephens/habitchain/internal/constants"
)

// Track is an independent sequence of thresholds over one counter.
type Track string

const (
	// TrackCompletions counts completions across all habits.
	TrackCompletions Track = "completions"
	// TrackStreak follows the best streak across all habits.
	TrackStreak Track = "streak"
)

// Badge is one threshold on a track.
type Badge struct {
	ID        string `json:"id"`
	Track     Track  `json:"track"`
	Threshold int    `json:"threshold"`
	Title     string `json:"title"`
	Icon      string `json:"icon"`
}

// Heading is the overlay title shown when the badge unlocks.
func (b Badge) Heading() string {
	if b.Track == TrackStreak {
		return "Streak Badge Unlocked!"
	}
	return "Achievement Unlocked!"
}

// Message describes what the user did to earn the badge.
func (b Badge) Message() string {
	if b.Track == TrackStreak {
		return fmt.Sprintf("You reached a %d-day streak!", b.Threshold)
	}
	return fmt.Sprintf("You reached %d habit completions!", b.Threshold)
}

var completionBadges = []Badge{
	{Title: "First Habit", Icon: "🥇"},
	{Title: "10x Finisher", Icon: "🎯"},
	{Title: "20x Finisher", Icon: "🔥"},
	{Title: "50x Master", Icon: "💎"},
	{Title: "Century Club", Icon: "👑"},
	{Title: "Legend", Icon: "🌟"},
}

var streakBadges = []Badge{
	{Title: "Streak Starter", Icon: "🔥"},
	{Title: "On Fire", Icon: "⚡️"},
	{Title: "Habit Hero", Icon: "🦸"},
	{Title: "Chain Master", Icon: "⛓️"},
	{Title: "Unbreakable", Icon: "💎"},
	{Title: "Legendary Chain", Icon: "🌟"},
}

// Badges returns the ascending badge list of a track.
func Badges(track Track) []Badge {
	var thresholds []int
	var names []Badge
	switch track {
	case TrackCompletions:
		thresholds, names = constants.CompletionThresholds, completionBadges
	case TrackStreak:
		thresholds, names = constants.StreakThresholds, streakBadges
	default:
		return nil
	}

	badges := make([]Badge, len(thresholds))
	for i, t := range thresholds {
		b := Badge{
			ID:        fmt.Sprintf("%s-%d", track, t),
			Track:     track,
			Threshold: t,
			Title:     fmt.Sprintf("%d %s", t, track),
			Icon:      "🏅",
		}
		if i < len(names) {
			b.Title, b.Icon = names[i].Title, names[i].Icon
		}
		badges[i] = b
	}
	return badges
}

// Status is a badge together with whether it is unlocked.
type Status struct {
	Badge    Badge `json:"badge"`
	Unlocked bool  `json:"unlocked"`
	// Progress is the current counter value for the badge's track.
	Progress int `json:"progress"`
}

// Catalog lists every badge of both tracks, completion track first, with
// its unlocked state in snap.
func Catalog(snap Snapshot) []Status {
	var out []Status
	for _, track := range []Track{TrackCompletions, TrackStreak} {
		value := snap.value(track)
		for _, b := range Badges(track) {
			out = append(out, Status{Badge: b, Unlocked: value >= b.Threshold, Progress: value})
		}
	}
	return out
}
