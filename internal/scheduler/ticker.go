package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

// Ticker runs the scheduler on a fixed interval.
type Ticker struct {
	scheduler *Scheduler
	cron      *gocron.Scheduler
}

// NewTicker wires the scheduler to a cron runner using the configured
// interval. Overlapping ticks are prevented; a slow batch simply delays
// the next one.
func NewTicker(s *Scheduler) (*Ticker, error) {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()

	interval := s.Config.AutoIntervalMin
	if interval <= 0 {
		return nil, fmt.Errorf("auto interval must be positive, got %d", interval)
	}

	_, err := cron.Every(interval).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(interval)*time.Minute)
		defer cancel()

		reports, err := s.RunOnce(ctx)
		if err != nil {
			fmt.Printf("scheduler tick finished with error: %v\n", err)
		}
		for _, r := range reports {
			if r.Requested > 0 {
				fmt.Printf("channel %s: %d processed, %d skipped, %d failed\n",
					r.ChannelCode, r.Processed, r.Skipped, r.Failed)
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule tick: %w", err)
	}

	return &Ticker{scheduler: s, cron: cron}, nil
}

// Start begins ticking without blocking.
func (t *Ticker) Start() {
	t.cron.StartAsync()
}

// Stop halts ticking and waits for a running tick to finish.
func (t *Ticker) Stop() {
	t.cron.Stop()
}
