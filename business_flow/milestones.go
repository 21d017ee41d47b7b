package businessflow

// ClickMilestones are the total-click thresholds that trigger a one-time
// notification and email. A milestone fires only when the post-write total
// lands exactly on the threshold; a burst that jumps past one skips it.
var ClickMilestones = []int{5, 100, 500, 1000, 5000, 10000}

// matchMilestone returns the threshold equal to total, or 0.
func matchMilestone(total int64) int {
	for _, m := range ClickMilestones {
		if total == int64(m) {
			return m
		}
	}
	return 0
}
