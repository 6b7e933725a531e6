package achievement

// Snapshot holds the counters both tracks are measured against.
type Snapshot struct {
	Completions int `json:"completions"`
	BestStreak  int `json:"best_streak"`
	// Degraded is set when a counter could not be read and fell back to
	// zero. Crossings are never reported against a degraded snapshot.
	Degraded bool `json:"degraded,omitempty"`
}

func (s Snapshot) value(track Track) int {
	if track == TrackStreak {
		return s.BestStreak
	}
	return s.Completions
}

// DetectCrossings diffs snapshots taken before and after one ledger
// mutation. A threshold T is crossed when pre < T <= post. Each track
// reports at most its lowest crossed threshold, and the completion track
// comes first.
func DetectCrossings(pre, post Snapshot) []Badge {
	if pre.Degraded || post.Degraded {
		return nil
	}

	var crossed []Badge
	for _, track := range []Track{TrackCompletions, TrackStreak} {
		if b, ok := firstCrossing(Badges(track), pre.value(track), post.value(track)); ok {
			crossed = append(crossed, b)
		}
	}
	return crossed
}

func firstCrossing(badges []Badge, pre, post int) (Badge, bool) {
	for _, b := range badges {
		if pre < b.Threshold && b.Threshold <= post {
			return b, true
		}
	}
	return Badge{}, false
}
