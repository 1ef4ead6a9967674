package priorities

import "github.com/rfsouza1492/factory-endurance-sub000/internal/types"

// FromBucket maps a ConcernSet severity bucket to a task priority.
//
// Mapping rules:
// - critical -> P0 (never auto-fixed)
// - high     -> P1
// - medium   -> P2
// - low      -> P3
// - unknown  -> P3
func FromBucket(bucket types.Bucket) types.Priority {
	switch bucket {
	case types.BucketCritical:
		return types.P0
	case types.BucketHigh:
		return types.P1
	case types.BucketMedium:
		return types.P2
	default:
		return types.P3
	}
}

// BucketFor is the inverse of FromBucket. Invalid priorities land in the low bucket.
func BucketFor(p types.Priority) types.Bucket {
	switch p {
	case types.P0:
		return types.BucketCritical
	case types.P1:
		return types.BucketHigh
	case types.P2:
		return types.BucketMedium
	default:
		return types.BucketLow
	}
}

// IsAutoFixable reports whether a task of the given priority may be handed to
// the remediation executor. P0 is excluded unconditionally.
func IsAutoFixable(p types.Priority) bool {
	return p.IsValid() && p != types.P0
}

// Compare orders two tasks by priority, then effort. It returns a negative
// number when a sorts before b, positive when after, and 0 on a tie.
func Compare(a, b *types.RemediationTask) int {
	if d := a.Priority.Ordinal() - b.Priority.Ordinal(); d != 0 {
		return d
	}
	return a.Effort.Rank() - b.Effort.Rank()
}
