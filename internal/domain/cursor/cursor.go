// Package cursor tracks which match ids a player has already been checked for.
package cursor

// Step is the outcome of comparing a stored cursor with a fresh id batch.
type Step struct {
	// Initial is true when the player had never been polled; nothing is new and
	// the cursor is only seeded.
	Initial bool
	// NewIDs are the unseen ids, oldest first.
	NewIDs []string
	// NextLastSeen replaces the stored cursor once the batch is handled.
	NextLastSeen []string
}

// Plan compares lastSeen with current (both most recent first).
func Plan(lastSeen, current []string, batchSize int) Step {
	next := Advance(current, batchSize)
	if len(lastSeen) == 0 {
		return Step{Initial: true, NextLastSeen: next}
	}
	return Step{NewIDs: NewIDs(lastSeen, current), NextLastSeen: next}
}

// NewIDs returns the ids of current missing from lastSeen in chronological order.
func NewIDs(lastSeen, current []string) []string {
	seen := make(map[string]struct{}, len(lastSeen))
	for _, id := range lastSeen {
		seen[id] = struct{}{}
	}

	fresh := make([]string, 0, len(current))
	for _, id := range current {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		fresh = append(fresh, id)
	}

	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}
	return fresh
}

// Advance returns a copy of current truncated to batchSize.
func Advance(current []string, batchSize int) []string {
	n := len(current)
	if batchSize > 0 && n > batchSize {
		n = batchSize
	}
	return append([]string{}, current[:n]...)
}

// Changed reports whether the cursor moved.
func Changed(prev, next []string) bool {
	if len(prev) != len(next) {
		return true
	}
	for i := range prev {
		if prev[i] != next[i] {
			return true
		}
	}
	return false
}
