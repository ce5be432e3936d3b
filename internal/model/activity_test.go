package model

import (
	"testing"
	"time"
)

func TestActivityLive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	base := Activity{
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Status:    ActivityLive,
	}

	cases := []struct {
		name   string
		mutate func(*Activity)
		at     time.Time
		want   bool
	}{
		{name: "inside window", at: now, want: true},
		{name: "at start boundary", at: base.StartTime, want: true},
		{name: "at end boundary", at: base.EndTime, want: true},
		{name: "before start", at: base.StartTime.Add(-time.Second), want: false},
		{name: "after end", at: base.EndTime.Add(time.Second), want: false},
		{name: "offline status", mutate: func(a *Activity) { a.Status = ActivityOffline }, at: now, want: false},
		{name: "ended status", mutate: func(a *Activity) { a.Status = ActivityEnded }, at: now, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			act := base
			if tc.mutate != nil {
				tc.mutate(&act)
			}
			if got := act.Live(tc.at); got != tc.want {
				t.Fatalf("Live(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}
