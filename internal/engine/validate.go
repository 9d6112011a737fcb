package engine

import (
	"sort"

	"github.com/dugout-app/lineup-backend/internal/positions"
)

// Conflicts returns the positions held by more than one lineup slot.
// Always recomputed from scratch over the full lineup, never patched
// incrementally, so removing the only other holder of a position clears
// it on the next pass. Unassigned slots never contribute.
func Conflicts(lineup []Slot) []positions.Position {
	counts := map[positions.Position]int{}
	for _, slot := range lineup {
		if slot.Position == "" {
			continue
		}
		counts[slot.Position]++
	}

	out := []positions.Position{}
	for p, n := range counts {
		if n > 1 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasDuplicateBattingOrder is a defensive invariant check: Apply keeps
// batting order dense, so a duplicate means the lineup was corrupted
// outside the engine (e.g. a bad remote snapshot).
func HasDuplicateBattingOrder(lineup []Slot) bool {
	seen := map[int]bool{}
	for _, slot := range lineup {
		if seen[slot.BattingOrder] {
			return true
		}
		seen[slot.BattingOrder] = true
	}
	return false
}
