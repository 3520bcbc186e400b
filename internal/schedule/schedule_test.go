package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markwatch/journal-cli/internal/config"
	"github.com/markwatch/journal-cli/internal/model"
)

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("monday")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d)

	d, err = ParseWeekday("  Friday ")
	require.NoError(t, err)
	assert.Equal(t, time.Friday, d)

	_, err = ParseWeekday("someday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown weekday")
}

func TestNextRun(t *testing.T) {
	// Wednesday 2024-06-12 10:00 UTC.
	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

	// Later the same day.
	next := NextRun(now, time.Wednesday, 15, 30)
	assert.Equal(t, time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC), next)

	// Earlier the same day rolls over a full week.
	next = NextRun(now, time.Wednesday, 9, 0)
	assert.Equal(t, time.Date(2024, 6, 19, 9, 0, 0, 0, time.UTC), next)

	// Later this week.
	next = NextRun(now, time.Friday, 9, 0)
	assert.Equal(t, time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC), next)

	// Earlier this week wraps to next week.
	next = NextRun(now, time.Monday, 9, 0)
	assert.Equal(t, time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC), next)

	// Exactly now fires now, not in a week.
	next = NextRun(now, time.Wednesday, 10, 0)
	assert.Equal(t, now, next)
}

func TestStart_InvalidWeekday(t *testing.T) {
	s := NewWithRunFunc(config.ScheduleConfig{Weekday: "noday"}, nil)
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown weekday")
}

func TestStart_FiresAndStops(t *testing.T) {
	var runs atomic.Int32
	fired := make(chan struct{}, 1)

	s := NewWithRunFunc(config.ScheduleConfig{Weekday: "monday", Hour: 9}, func(ctx context.Context, trigger model.TriggerKind) (*model.RunAudit, error) {
		assert.Equal(t, model.TriggerScheduled, trigger)
		runs.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
		return &model.RunAudit{Status: model.RunStatusSuccess}, nil
	})

	// Pin the clock a hair before the scheduled instant so the first
	// timer fires almost immediately.
	target := time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local) // a Monday
	s.now = func() time.Time { return target.Add(-10 * time.Millisecond) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled run never fired")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}
