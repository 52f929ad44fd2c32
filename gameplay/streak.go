package gameplay

import "time"

// StreakGap is the largest pause between two matches that keeps a streak alive.
const StreakGap = 30 * time.Second

// LongestStreak returns the longest run of matches where each match happened
// within StreakGap of the previous one. offsets are elapsed times since the
// session start, in match order.
func LongestStreak(offsets []time.Duration) int {
	if len(offsets) == 0 {
		return 0
	}

	longest, current := 1, 1
	for i := 1; i < len(offsets); i++ {
		if offsets[i]-offsets[i-1] <= StreakGap {
			current++
		} else {
			current = 1
		}
		longest = max(longest, current)
	}
	return longest
}
