package gate

import "time"

// WindowStart returns the oldest instant still inside the trailing window.
func WindowStart(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}

// SplitWindow partitions instants into those still inside the trailing window
// and those that have aged out. Pure; the input slice is not modified.
func SplitWindow(times []time.Time, now time.Time, window time.Duration) (within, expired []time.Time) {
	cutoff := WindowStart(now, window)
	for _, t := range times {
		if t.After(cutoff) {
			within = append(within, t)
		} else {
			expired = append(expired, t)
		}
	}
	return within, expired
}

// PruneWindow drops expired instants in place and returns the survivors. The
// returned slice aliases the input's backing array.
func PruneWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := WindowStart(now, window)
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
