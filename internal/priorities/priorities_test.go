package priorities

import (
	"testing"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

func TestFromBucket(t *testing.T) {
	tests := []struct {
		name   string
		bucket types.Bucket
		want   types.Priority
	}{
		{name: "critical becomes P0", bucket: types.BucketCritical, want: types.P0},
		{name: "high becomes P1", bucket: types.BucketHigh, want: types.P1},
		{name: "medium becomes P2", bucket: types.BucketMedium, want: types.P2},
		{name: "low becomes P3", bucket: types.BucketLow, want: types.P3},
		{name: "unknown bucket falls to P3", bucket: "urgent", want: types.P3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromBucket(tt.bucket); got != tt.want {
				t.Errorf("FromBucket(%q) = %s, want %s", tt.bucket, got, tt.want)
			}
		})
	}
}

func TestBucketForRoundTrips(t *testing.T) {
	for _, b := range types.Buckets {
		if got := BucketFor(FromBucket(b)); got != b {
			t.Errorf("BucketFor(FromBucket(%q)) = %q", b, got)
		}
	}
}

func TestIsAutoFixable(t *testing.T) {
	if IsAutoFixable(types.P0) {
		t.Error("P0 must never be auto-fixable")
	}
	for _, p := range []types.Priority{types.P1, types.P2, types.P3} {
		if !IsAutoFixable(p) {
			t.Errorf("%s should be auto-fixable", p)
		}
	}
	if IsAutoFixable("P7") {
		t.Error("invalid priority should not be auto-fixable")
	}
}

func TestCompare(t *testing.T) {
	p1s := &types.RemediationTask{Priority: types.P1, Effort: types.EffortS}
	p1m := &types.RemediationTask{Priority: types.P1, Effort: types.EffortM}
	p2xs := &types.RemediationTask{Priority: types.P2, Effort: types.EffortXS}

	if Compare(p1s, p1m) >= 0 {
		t.Error("P1/S should sort before P1/M")
	}
	if Compare(p1m, p2xs) >= 0 {
		t.Error("priority should dominate effort")
	}
	if Compare(p1s, p1s) != 0 {
		t.Error("identical keys should tie")
	}
}
