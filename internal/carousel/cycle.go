package carousel

import "slices"

// Cycle is the player order for the highlight slide. It is captured from
// the first non-empty leaderboard and never reordered afterwards, so the
// spotlight rotates through everyone even while ranks shift.
type Cycle struct {
	ids []int64
}

// Lock returns a cycle holding ids, unless c is already locked or ids is
// empty, in which case c is returned as is.
func (c Cycle) Lock(ids []int64) Cycle {
	if c.Locked() || len(ids) == 0 {
		return c
	}
	return Cycle{ids: slices.Clone(ids)}
}

func (c Cycle) Locked() bool { return len(c.ids) > 0 }

func (c Cycle) Len() int { return len(c.ids) }

// At returns the player at position i.
func (c Cycle) At(i int) (int64, bool) {
	if i < 0 || i >= len(c.ids) {
		return 0, false
	}
	return c.ids[i], true
}

// IndexOf returns the position of a player in the cycle.
func (c Cycle) IndexOf(playerID int64) (int, bool) {
	i := slices.Index(c.ids, playerID)
	return i, i >= 0
}

// IDs returns a copy of the locked order.
func (c Cycle) IDs() []int64 { return slices.Clone(c.ids) }
