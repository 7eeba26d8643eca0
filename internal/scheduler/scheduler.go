// Package scheduler runs the automatic batch loop: keep a candidate
// pool per channel, pick the most viewed unprocessed videos within the
// daily quota, and drive each one through the pipeline.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aman/scriptline/internal/config"
	"github.com/aman/scriptline/internal/pipeline"
	"github.com/aman/scriptline/internal/store"
	"github.com/aman/scriptline/internal/types"
)

// DefaultItemDelay paces successive items within one channel's batch.
const DefaultItemDelay = 30 * time.Second

// DefaultPoolFetchLimit caps how many candidates one refresh pulls.
const DefaultPoolFetchLimit = 50

// CandidateLister supplies fresh pool candidates for a channel.
type CandidateLister interface {
	ListChannelVideos(ctx context.Context, channelID string, limit int) ([]types.SourceItem, error)
}

// Scheduler owns per-channel pools and quota state. Pools and quota are
// in-memory; batch outcomes are durable through the store so an
// operator can see interrupted work after a restart.
type Scheduler struct {
	Config   *config.Config
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Lister   CandidateLister

	ItemDelay time.Duration

	mu     sync.Mutex
	pools  map[string]*types.ChannelPool
	states map[string]*types.ScheduleState

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New returns a Scheduler over the given collaborators.
func New(cfg *config.Config, st store.Store, p *pipeline.Pipeline, lister CandidateLister) *Scheduler {
	delay := DefaultItemDelay
	if cfg.ItemDelaySec > 0 {
		delay = time.Duration(cfg.ItemDelaySec) * time.Second
	}
	return &Scheduler{
		Config:    cfg,
		Store:     st,
		Pipeline:  p,
		Lister:    lister,
		ItemDelay: delay,
		pools:     make(map[string]*types.ChannelPool),
		states:    make(map[string]*types.ScheduleState),
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// ChannelReport summarizes one channel's slice of a scheduler run.
type ChannelReport struct {
	ChannelCode string
	BatchID     string
	Requested   int
	Processed   int
	Skipped     int
	Failed      int
}

// RunOnce executes one scheduler tick: every configured channel runs
// its batch concurrently with the others, items within a channel
// strictly in sequence. A channel failure does not stop its siblings;
// the first error is still reported after all channels finish.
func (s *Scheduler) RunOnce(ctx context.Context) ([]ChannelReport, error) {
	reports := make([]ChannelReport, len(s.Config.Channels))

	// No shared cancel context: a failing channel must not abort its
	// siblings mid-batch.
	var g errgroup.Group
	for i := range s.Config.Channels {
		channel := &s.Config.Channels[i]
		g.Go(func() error {
			report, err := s.runChannel(ctx, channel, 0)
			if report != nil {
				reports[i] = *report
			}
			return err
		})
	}
	err := g.Wait()
	return reports, err
}

// RunChannel processes up to count items for one channel immediately.
// A zero count uses the channel's remaining daily quota.
func (s *Scheduler) RunChannel(ctx context.Context, channelCode string, count int) (*ChannelReport, error) {
	channel := s.Config.Channel(channelCode)
	if channel == nil {
		return nil, fmt.Errorf("unknown channel: %s", channelCode)
	}
	return s.runChannel(ctx, channel, count)
}

func (s *Scheduler) runChannel(ctx context.Context, channel *config.ChannelConfig, count int) (*ChannelReport, error) {
	report := &ChannelReport{ChannelCode: channel.Code}

	if count == 0 {
		count = s.remainingQuota(channel)
	}
	if count == 0 {
		return report, nil
	}

	candidates, err := s.selectCandidates(ctx, channel, count)
	if err != nil {
		return report, err
	}
	if len(candidates) == 0 {
		return report, nil
	}

	batch := &types.BatchRecord{
		ID:          uuid.New().String(),
		Username:    channel.Username,
		ChannelCode: channel.Code,
		Requested:   len(candidates),
		Status:      types.BatchRunning,
		StartedAt:   s.now().UTC(),
	}
	if err := s.Store.CreateBatch(ctx, batch); err != nil {
		return report, fmt.Errorf("failed to record batch: %w", err)
	}
	report.BatchID = batch.ID
	report.Requested = len(candidates)

	var firstErr error
	for i, item := range candidates {
		if ctx.Err() != nil {
			s.finishBatch(batch, types.BatchInterrupted)
			return report, ctx.Err()
		}
		if i > 0 && s.ItemDelay > 0 {
			s.sleep(s.ItemDelay)
		}

		result, err := s.Pipeline.Process(ctx, item, channel)
		switch {
		case err != nil:
			report.Failed++
			batch.Failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("channel %s: %w", channel.Code, err)
			}
		case result.Skipped:
			report.Skipped++
		default:
			report.Processed++
			batch.Processed++
			s.recordProcessed(channel)
		}
		// Progress is persisted per item so an interrupted batch shows
		// how far it got.
		_ = s.Store.UpdateBatch(ctx, batch)
	}

	s.finishBatch(batch, types.BatchCompleted)
	return report, firstErr
}

func (s *Scheduler) finishBatch(batch *types.BatchRecord, status string) {
	finished := s.now().UTC()
	batch.Status = status
	batch.FinishedAt = &finished
	// Finalization runs even when the run context is gone.
	_ = s.Store.UpdateBatch(context.Background(), batch)
}

// selectCandidates returns up to count unprocessed pool items, most
// viewed first. The pool is refreshed wholesale when stale.
func (s *Scheduler) selectCandidates(ctx context.Context, channel *config.ChannelConfig, count int) ([]types.SourceItem, error) {
	pool, err := s.poolFor(ctx, channel)
	if err != nil {
		return nil, err
	}

	var eligible []types.SourceItem
	for _, item := range pool.Items {
		done, err := s.Store.IsProcessed(ctx, channel.Code, item.VideoID)
		if err != nil {
			return nil, fmt.Errorf("dedup check failed: %w", err)
		}
		if !done {
			eligible = append(eligible, item)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].ViewCount > eligible[j].ViewCount
	})

	if len(eligible) > count {
		eligible = eligible[:count]
	}
	return eligible, nil
}

// poolFor returns the channel's pool, refreshing it when stale.
func (s *Scheduler) poolFor(ctx context.Context, channel *config.ChannelConfig) (*types.ChannelPool, error) {
	s.mu.Lock()
	pool := s.pools[channel.Code]
	s.mu.Unlock()

	if pool != nil && !pool.Stale(s.now()) {
		return pool, nil
	}

	items, err := s.Lister.ListChannelVideos(ctx, channel.SourceChannelID, DefaultPoolFetchLimit)
	if err != nil {
		// A stale pool beats no pool when the provider is down.
		if pool != nil {
			return pool, nil
		}
		return nil, fmt.Errorf("pool refresh failed for %s: %w", channel.Code, err)
	}

	filtered := make([]types.SourceItem, 0, len(items))
	for _, item := range items {
		if item.DurationSec < channel.MinDurationSec {
			continue
		}
		if channel.MaxDurationSec > 0 && item.DurationSec > channel.MaxDurationSec {
			continue
		}
		item.ChannelCode = channel.Code
		filtered = append(filtered, item)
	}

	pool = &types.ChannelPool{
		ChannelCode:     channel.Code,
		Items:           filtered,
		LastRefreshedAt: s.now(),
		MinDurationSec:  channel.MinDurationSec,
		MaxDurationSec:  channel.MaxDurationSec,
	}

	s.mu.Lock()
	s.pools[channel.Code] = pool
	s.mu.Unlock()
	return pool, nil
}

func (s *Scheduler) remainingQuota(channel *config.ChannelConfig) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[channel.Code]
	if state == nil {
		state = &types.ScheduleState{
			ChannelCode:     channel.Code,
			DailyVideoCount: channel.DailyVideoCount,
		}
		s.states[channel.Code] = state
	}
	return state.RemainingToday(s.now())
}

func (s *Scheduler) recordProcessed(channel *config.ChannelConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[channel.Code]
	if state == nil {
		state = &types.ScheduleState{
			ChannelCode:     channel.Code,
			DailyVideoCount: channel.DailyVideoCount,
		}
		s.states[channel.Code] = state
	}
	state.RecordProcessed(s.now())
}

// RecoverInterrupted marks batches still "running" from a previous
// process as interrupted. Called once at startup.
func (s *Scheduler) RecoverInterrupted(ctx context.Context) (int, error) {
	running, err := s.Store.ListBatches(ctx, types.BatchRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to list running batches: %w", err)
	}

	recovered := 0
	for i := range running {
		batch := running[i]
		finished := s.now().UTC()
		batch.Status = types.BatchInterrupted
		batch.FinishedAt = &finished
		if err := s.Store.UpdateBatch(ctx, &batch); err != nil {
			return recovered, fmt.Errorf("failed to mark batch %s interrupted: %w", batch.ID, err)
		}
		recovered++
	}
	return recovered, nil
}
