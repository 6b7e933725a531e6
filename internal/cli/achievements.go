package cli

import "github.com/julianstephens/habitchain/internal/achievement"

// AchievementsCmd lists every badge with its progress.
type AchievementsCmd struct{}

func (c *AchievementsCmd) Run(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	var track achievement.Track
	for _, s := range ctx.Tracker.Achievements(ctx.Ctx) {
		if s.Badge.Track != track {
			track = s.Badge.Track
			if track == achievement.TrackStreak {
				ctx.printf("\nStreak badges\n")
			} else {
				ctx.printf("Completion badges\n")
			}
		}
		mark := "  "
		if s.Unlocked {
			mark = "✓ "
		}
		ctx.printf("  %s%s %-16s %d/%d\n", mark, s.Badge.Icon, s.Badge.Title, min(s.Progress, s.Badge.Threshold), s.Badge.Threshold)
	}
	return nil
}
