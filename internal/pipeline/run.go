// Package pipeline turns one source video into one submitted queue job:
// fetch transcript, rewrite, number, submit, mark processed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman/scriptline/internal/config"
	"github.com/aman/scriptline/internal/queue"
	"github.com/aman/scriptline/internal/rewriting"
	"github.com/aman/scriptline/internal/store"
	"github.com/aman/scriptline/internal/types"
)

// ErrNotConfigured is returned when a required collaborator is missing.
var ErrNotConfigured = errors.New("pipeline is not fully configured")

// Submitter enqueues finished jobs on the queue host.
type Submitter interface {
	Submit(ctx context.Context, job *types.JobRecord) (*queue.JobStatus, error)
}

// TranscriptFetcher supplies transcript text for items that arrive
// without one.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) (string, error)
}

// ProgressEvent represents a progress update during item processing.
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	VideoID string `json:"video_id,omitempty"`
}

// ProgressCallback is called as processing advances.
type ProgressCallback func(event ProgressEvent)

// Result describes what happened to one source item. VideoNumber is set
// even when submission failed after issuance; issued numbers are never
// rolled back, so the gap is surfaced instead of hidden.
type Result struct {
	VideoID      string
	Title        string
	Skipped      bool
	VideoNumber  int
	AudioCounter int
	JobID        string
	Err          error
}

// Pipeline wires the rewrite orchestrator, the store, and the queue
// client together. All collaborators are required except Fetcher, which
// is only consulted for items without transcript text.
type Pipeline struct {
	Orchestrator *rewriting.Orchestrator
	Store        store.Store
	Queue        Submitter
	Fetcher      TranscriptFetcher
	Config       *config.Config

	// now is swappable for tests.
	now func() time.Time

	OnProgress ProgressCallback
}

// New returns a Pipeline over the given collaborators.
func New(orchestrator *rewriting.Orchestrator, st store.Store, q Submitter, fetcher TranscriptFetcher, cfg *config.Config) *Pipeline {
	return &Pipeline{
		Orchestrator: orchestrator,
		Store:        st,
		Queue:        q,
		Fetcher:      fetcher,
		Config:       cfg,
		now:          time.Now,
	}
}

func (p *Pipeline) emit(step, message, videoID string) {
	if p.OnProgress != nil {
		p.OnProgress(ProgressEvent{Step: step, Message: message, VideoID: videoID})
	}
}

// Process runs one item through the full flow for a channel. Already
// processed items return a skip result with no number consumed. Any
// failure before numbering leaves the sequence untouched; a submission
// failure after numbering returns the consumed number in the result.
func (p *Pipeline) Process(ctx context.Context, item types.SourceItem, channel *config.ChannelConfig) (*Result, error) {
	if p.Orchestrator == nil || p.Store == nil || p.Queue == nil || p.Config == nil {
		return nil, ErrNotConfigured
	}
	// A missing queue credential fails every submission; refuse before
	// any rewrite call or number issuance.
	if p.Config.QueueAPIKey == "" {
		return nil, fmt.Errorf("%w: queue API key is missing", ErrNotConfigured)
	}
	if channel == nil {
		return nil, fmt.Errorf("channel config is required")
	}

	result := &Result{VideoID: item.VideoID, Title: item.Title}

	done, err := p.Store.IsProcessed(ctx, channel.Code, item.VideoID)
	if err != nil {
		return nil, fmt.Errorf("dedup check failed for %s: %w", item.VideoID, err)
	}
	if done {
		p.emit("dedup", "already processed, skipping", item.VideoID)
		result.Skipped = true
		return result, nil
	}

	transcript := item.Text
	if transcript == "" {
		if p.Fetcher == nil {
			return nil, fmt.Errorf("%w: item %s has no transcript and no fetcher is set", ErrNotConfigured, item.VideoID)
		}
		p.emit("fetch", "fetching transcript", item.VideoID)
		transcript, err = p.Fetcher.FetchTranscript(ctx, item.VideoID)
		if err != nil {
			return nil, fmt.Errorf("transcript fetch failed for %s: %w", item.VideoID, err)
		}
	}

	p.emit("rewrite", "rewriting transcript", item.VideoID)
	script, err := p.Orchestrator.RewriteTranscript(ctx, transcript, channel.Instruction)
	if err != nil {
		return nil, fmt.Errorf("rewrite failed for %s: %w", item.VideoID, err)
	}

	// Numbers are issued only once a script exists, so rewrite failures
	// never burn a number.
	videoNumber, err := p.Store.IssueVideoNumber(ctx, channel.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue video number: %w", err)
	}
	result.VideoNumber = videoNumber

	audioCounter, err := p.Store.IssueAudioCounter(ctx, channel.Username)
	if err != nil {
		result.Err = fmt.Errorf("failed to issue audio counter: %w", err)
		return result, result.Err
	}
	result.AudioCounter = audioCounter

	date := p.now().Format("2006-01-02")
	job := &types.JobRecord{
		JobID:         queue.NewJobID(),
		ScriptText:    script,
		ChannelCode:   channel.Code,
		VideoNumber:   videoNumber,
		Date:          date,
		Priority:      jobPriority(p.Config, channel.Username),
		AudioCounter:  audioCounter,
		OrganizedPath: fmt.Sprintf("organized/%s/%s/video_%d", date, channel.Code, videoNumber),
		Username:      channel.Username,
		RefAudio:      channel.RefAudio,
		SourceVideoID: item.VideoID,
	}

	p.emit("submit", fmt.Sprintf("submitting video %d", videoNumber), item.VideoID)
	ack, err := p.Queue.Submit(ctx, job)
	if err != nil {
		result.Err = fmt.Errorf("submission failed for video %d: %w", videoNumber, err)
		return result, result.Err
	}
	result.JobID = ack.JobID

	// Marked only after the queue accepted the job. A crash between
	// submit and mark reprocesses the item with a new number rather
	// than losing it.
	if err := p.Store.MarkProcessed(ctx, channel.Code, item.VideoID); err != nil {
		result.Err = fmt.Errorf("failed to mark %s processed: %w", item.VideoID, err)
		return result, result.Err
	}

	p.emit("done", fmt.Sprintf("video %d queued as %s", videoNumber, ack.JobID), item.VideoID)
	return result, nil
}

// jobPriority maps the owning user to a queue priority.
func jobPriority(cfg *config.Config, username string) int {
	if cfg.IsPriorityUser(username) {
		return types.PriorityHigh
	}
	return types.PriorityNormal
}
