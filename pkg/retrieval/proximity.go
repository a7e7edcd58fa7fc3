package retrieval

import (
	"math"
	"sort"
)

// Proximity boost parameters.
const (
	maxBoost = 2.0
	lambda   = 0.007
)

// positionEvent is one (position, term) occurrence in the merged event
// stream MinWindow slides over.
type positionEvent struct {
	pos  int
	term string
}

// MinWindow computes the minimum window size containing at least one
// occurrence of every term in positionsByTerm. It runs a linear-time
// sliding window over the merged, sorted event stream rather than
// enumerating the Cartesian product of every term's occurrences, which
// is exponential in the number of terms.
//
// It reports false if positionsByTerm is empty.
func MinWindow(positionsByTerm map[string][]int) (int, bool) {
	k := len(positionsByTerm)
	if k == 0 {
		return 0, false
	}

	events := make([]positionEvent, 0)
	for term, positions := range positionsByTerm {
		for _, p := range positions {
			events = append(events, positionEvent{pos: p, term: term})
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].pos < events[j].pos })

	count := make(map[string]int, k)
	distinct := 0
	best := -1
	left := 0

	for right := 0; right < len(events); right++ {
		t := events[right].term
		count[t]++
		if count[t] == 1 {
			distinct++
		}
		for distinct == k {
			window := events[right].pos - events[left].pos
			if best == -1 || window < best {
				best = window
			}
			lt := events[left].term
			count[lt]--
			if count[lt] == 0 {
				distinct--
			}
			left++
		}
	}

	if best == -1 {
		return 0, false
	}
	return best, true
}

// Boost computes the proximity multiplier for a window of size w over k
// distinct query terms. The result is always in [1, maxBoost].
func Boost(w, k int) float64 {
	if w == k {
		return maxBoost
	}
	b := maxBoost * math.Exp(-lambda*float64(w))
	if b < 1 {
		return 1
	}
	return b
}
