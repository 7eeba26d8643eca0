package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChannelPool_Stale(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	fresh := &ChannelPool{LastRefreshedAt: now.Add(-2 * 24 * time.Hour)}
	assert.False(t, fresh.Stale(now))

	old := &ChannelPool{LastRefreshedAt: now.Add(-8 * 24 * time.Hour)}
	assert.True(t, old.Stale(now))

	boundary := &ChannelPool{LastRefreshedAt: now.Add(-PoolMaxAge)}
	assert.False(t, boundary.Stale(now))
}

func TestScheduleState_RemainingToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	s := &ScheduleState{DailyVideoCount: 6, ProcessedToday: 2, LastProcessedAt: now.Add(-time.Hour)}
	assert.Equal(t, 4, s.RemainingToday(now))

	// Day rollover resets the counter.
	s = &ScheduleState{DailyVideoCount: 6, ProcessedToday: 6, LastProcessedAt: now.Add(-24 * time.Hour)}
	assert.Equal(t, 6, s.RemainingToday(now))

	// Over quota never goes negative.
	s = &ScheduleState{DailyVideoCount: 3, ProcessedToday: 5, LastProcessedAt: now}
	assert.Equal(t, 0, s.RemainingToday(now))
}

func TestScheduleState_RecordProcessed(t *testing.T) {
	day1 := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC)

	s := &ScheduleState{DailyVideoCount: 6}
	s.RecordProcessed(day1)
	s.RecordProcessed(day1)
	assert.Equal(t, 2, s.ProcessedToday)

	s.RecordProcessed(day2)
	assert.Equal(t, 1, s.ProcessedToday)
	assert.Equal(t, day2, s.LastProcessedAt)
}
