// internal/domain/expiry/checkpoint.go
package expiry

import (
	"math"
	"time"
)

// DefaultCheckpoints is the stock set of day-offsets before expiry at which a
// notification fires.
var DefaultCheckpoints = Checkpoints{30, 14, 7, 3, 1}

// Checkpoints is an ordered, deduplicated set of whole-day offsets before the
// expiry instant. Immutable after startup.
type Checkpoints []int

// Contains reports whether days exactly equals one of the configured offsets.
// Exact equality is deliberate: combined with hourly polling and no sent-state
// it means a checkpoint re-fires on every poll while the integer holds.
func (c Checkpoints) Contains(days int) bool {
	for _, offset := range c {
		if days == offset {
			return true
		}
	}
	return false
}

// NormalizeCheckpoints drops non-positive offsets and deduplicates while
// preserving first-seen order.
func NormalizeCheckpoints(raw []int) Checkpoints {
	seen := make(map[int]struct{}, len(raw))
	out := make(Checkpoints, 0, len(raw))
	for _, d := range raw {
		if d <= 0 {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// DaysRemaining returns the ceiling of expiryAt minus now expressed in whole
// days: 23 hours left still reports 1 day, and a past expiry yields a
// negative count. It is recomputed from the wall clock on every use — nothing
// caches a previous value, so the result is monotonically non-increasing as
// now advances.
func DaysRemaining(now, expiryAt time.Time) int {
	return int(math.Ceil(expiryAt.Sub(now).Hours() / 24))
}
