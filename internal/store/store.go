// Package store provides the persisted counter, dedup, and batch state
// behind the pipeline. Two backends implement the same interface: a
// PostgreSQL store for shared deployments and a lock-guarded file store
// for single-host setups. Both make issue/mark operations race-free so
// concurrent pipeline runs cannot duplicate numbers or jobs.
package store

import (
	"context"

	"github.com/aman/scriptline/internal/types"
)

// Store is the persistence surface the pipeline and scheduler depend on.
type Store interface {
	// IssueVideoNumber returns the next video number for a user. Numbers
	// are strictly increasing, start at 1, and are never reissued.
	IssueVideoNumber(ctx context.Context, username string) (int, error)

	// IssueAudioCounter returns the next audio sequence counter for a
	// user, with the same monotonic guarantees as video numbers.
	IssueAudioCounter(ctx context.Context, username string) (int, error)

	// IsProcessed reports whether a source video has already been turned
	// into a job within the given scope (channel or user).
	IsProcessed(ctx context.Context, scope, videoID string) (bool, error)

	// MarkProcessed records a source video as done. Idempotent: marking
	// an already-present ID is a no-op. Entries are never removed.
	MarkProcessed(ctx context.Context, scope, videoID string) error

	// CreateBatch persists a batch record before its first item starts.
	CreateBatch(ctx context.Context, batch *types.BatchRecord) error

	// UpdateBatch rewrites a batch record's progress and status.
	UpdateBatch(ctx context.Context, batch *types.BatchRecord) error

	// ListBatches returns batch records, newest first, optionally
	// filtered by status. A batch still "running" after a restart was
	// interrupted mid-flight.
	ListBatches(ctx context.Context, status string) ([]types.BatchRecord, error)

	// Close releases backend resources.
	Close() error
}

// Counter kinds persisted per user.
const (
	counterVideo = "video"
	counterAudio = "audio"
)
