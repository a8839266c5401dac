package rotate

import "time"

// staggerSteps returns how many stagger increments the unit at offset i waits
// for, given n units and the pivot used by random origin.
func staggerSteps(from StaggerOrigin, i, n, pivot int) int {
	switch from.kind {
	case originLast:
		return n - 1 - i
	case originCenter:
		return abs(n/2 - i)
	case originRandom:
		return abs(pivot - i)
	case originIndex:
		return abs(from.index - i)
	default:
		return i
	}
}

func staggerDelay(from StaggerOrigin, d time.Duration, i, n, pivot int) time.Duration {
	if n == 0 {
		return 0
	}
	return time.Duration(staggerSteps(from, i, n, pivot)) * d
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
