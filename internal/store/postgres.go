package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aman/scriptline/internal/types"
)

// PostgresStore implements Store on a pgx connection pool. Counter issue
// and dedup insert are single statements, so concurrent pipeline runs
// serialize at the database instead of racing on read-modify-write.
//
// Expected schema:
//
//	CREATE TABLE counters (
//	    username TEXT NOT NULL,
//	    kind     TEXT NOT NULL,
//	    next     INTEGER NOT NULL,
//	    PRIMARY KEY (username, kind)
//	);
//	CREATE TABLE processed_items (
//	    scope    TEXT NOT NULL,
//	    video_id TEXT NOT NULL,
//	    added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (scope, video_id)
//	);
//	CREATE TABLE batches (
//	    id           TEXT PRIMARY KEY,
//	    username     TEXT NOT NULL,
//	    channel_code TEXT NOT NULL,
//	    requested    INTEGER NOT NULL,
//	    processed    INTEGER NOT NULL DEFAULT 0,
//	    failed       INTEGER NOT NULL DEFAULT 0,
//	    status       TEXT NOT NULL,
//	    started_at   TIMESTAMPTZ NOT NULL,
//	    finished_at  TIMESTAMPTZ
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// IssueVideoNumber issues the next video number for a user.
func (s *PostgresStore) IssueVideoNumber(ctx context.Context, username string) (int, error) {
	return s.issue(ctx, username, counterVideo)
}

// IssueAudioCounter issues the next audio counter for a user.
func (s *PostgresStore) IssueAudioCounter(ctx context.Context, username string) (int, error) {
	return s.issue(ctx, username, counterAudio)
}

// issue returns the pre-increment value in one atomic statement: the row
// starts at next=2 so the first call yields 1.
func (s *PostgresStore) issue(ctx context.Context, username, kind string) (int, error) {
	var issued int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO counters (username, kind, next)
		 VALUES ($1, $2, 2)
		 ON CONFLICT (username, kind) DO UPDATE SET next = counters.next + 1
		 RETURNING next - 1`,
		username, kind,
	).Scan(&issued)
	if err != nil {
		return 0, fmt.Errorf("failed to issue %s number for %s: %w", kind, username, err)
	}
	return issued, nil
}

// IsProcessed reports membership in the dedup set.
func (s *PostgresStore) IsProcessed(ctx context.Context, scope, videoID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_items WHERE scope = $1 AND video_id = $2)`,
		scope, videoID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check processed state: %w", err)
	}
	return exists, nil
}

// MarkProcessed appends to the dedup set; re-marking is a no-op.
func (s *PostgresStore) MarkProcessed(ctx context.Context, scope, videoID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processed_items (scope, video_id) VALUES ($1, $2)
		 ON CONFLICT (scope, video_id) DO NOTHING`,
		scope, videoID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark %s processed: %w", videoID, err)
	}
	return nil
}

// CreateBatch persists a new batch record.
func (s *PostgresStore) CreateBatch(ctx context.Context, batch *types.BatchRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO batches (id, username, channel_code, requested, processed, failed, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		batch.ID, batch.Username, batch.ChannelCode, batch.Requested,
		batch.Processed, batch.Failed, batch.Status, batch.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

// UpdateBatch rewrites a batch record's progress fields.
func (s *PostgresStore) UpdateBatch(ctx context.Context, batch *types.BatchRecord) error {
	result, err := s.pool.Exec(ctx,
		`UPDATE batches SET processed = $1, failed = $2, status = $3, finished_at = $4 WHERE id = $5`,
		batch.Processed, batch.Failed, batch.Status, batch.FinishedAt, batch.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("batch not found: %s", batch.ID)
	}
	return nil
}

// ListBatches returns batches newest first, optionally filtered by status.
func (s *PostgresStore) ListBatches(ctx context.Context, status string) ([]types.BatchRecord, error) {
	query := `SELECT id, username, channel_code, requested, processed, failed, status, started_at, finished_at
		FROM batches`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var batches []types.BatchRecord
	for rows.Next() {
		var b types.BatchRecord
		if err := rows.Scan(&b.ID, &b.Username, &b.ChannelCode, &b.Requested,
			&b.Processed, &b.Failed, &b.Status, &b.StartedAt, &b.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, nil
}
