package rewriting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aman/scriptline/internal/chunker"
	"github.com/aman/scriptline/internal/llm"
)

// DefaultChunkDelay is the pause between successive chunk calls. The
// backend rate-limits aggressively; back-to-back calls get throttled.
const DefaultChunkDelay = 500 * time.Millisecond

// Orchestrator drives one transcript end-to-end: chunk, rewrite each
// chunk strictly in order, merge. Chunk calls are never concurrent; the
// merged script must preserve source order and the backend must not see
// parallel traffic for one user.
type Orchestrator struct {
	Client        llm.Client
	MaxChunkChars int
	ChunkDelay    time.Duration

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// NewOrchestrator returns an Orchestrator with default chunk bounds.
func NewOrchestrator(client llm.Client) *Orchestrator {
	return &Orchestrator{
		Client:        client,
		MaxChunkChars: chunker.DefaultMaxChunkChars,
		ChunkDelay:    DefaultChunkDelay,
		sleep:         time.Sleep,
	}
}

// RewriteTranscript rewrites a whole transcript and returns the merged
// script. Fail-fast: the first chunk failure aborts the item, no partial
// script is ever returned, and remaining chunks are not attempted.
func (o *Orchestrator) RewriteTranscript(ctx context.Context, transcript, instruction string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("transcript is empty")
	}

	chunks := chunker.Split(transcript, o.MaxChunkChars)
	total := len(chunks)

	results := make([]string, 0, total)
	for i, chunk := range chunks {
		if i > 0 && o.ChunkDelay > 0 {
			o.sleepFor(o.ChunkDelay)
		}

		text, err := RewriteChunk(ctx, o.Client, chunk, instruction, i+1, total)
		if err != nil {
			return "", &CallError{
				ChunkIndex: i,
				Message:    fmt.Sprintf("chunk %d of %d", i+1, total),
				Cause:      err,
			}
		}
		results = append(results, text)
	}

	return strings.Join(results, "\n\n"), nil
}

func (o *Orchestrator) sleepFor(d time.Duration) {
	if o.sleep != nil {
		o.sleep(d)
		return
	}
	time.Sleep(d)
}
