package types

import "time"

// PoolMaxAge is how long a channel pool stays fresh before the scheduler
// refetches it wholesale from the provider.
const PoolMaxAge = 7 * 24 * time.Hour

// ChannelPool is the rotating cache of candidate source items for one
// monitored channel. Replaced wholesale on refresh, never patched.
type ChannelPool struct {
	ChannelCode     string       `json:"channel_code"`
	Items           []SourceItem `json:"items"`
	LastRefreshedAt time.Time    `json:"last_refreshed_at"`
	MinDurationSec  int          `json:"min_duration_sec"`
	MaxDurationSec  int          `json:"max_duration_sec"`
}

// Stale reports whether the pool needs a wholesale refresh.
func (p *ChannelPool) Stale(now time.Time) bool {
	return now.Sub(p.LastRefreshedAt) > PoolMaxAge
}

// ScheduleState tracks per-channel quota bookkeeping for the auto
// scheduler. The daily counter resets when the wall-clock day changes.
type ScheduleState struct {
	ChannelCode     string    `json:"channel_code"`
	DailyVideoCount int       `json:"daily_video_count"`
	ProcessedToday  int       `json:"processed_today"`
	LastProcessedAt time.Time `json:"last_processed_at"`
}

// RemainingToday returns how many items the channel may still process
// today, resetting the counter if the day rolled over since the last run.
func (s *ScheduleState) RemainingToday(now time.Time) int {
	if !sameDay(s.LastProcessedAt, now) {
		s.ProcessedToday = 0
	}
	remaining := s.DailyVideoCount - s.ProcessedToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordProcessed bumps the daily counter for a successful item.
func (s *ScheduleState) RecordProcessed(now time.Time) {
	if !sameDay(s.LastProcessedAt, now) {
		s.ProcessedToday = 0
	}
	s.ProcessedToday++
	s.LastProcessedAt = now
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
