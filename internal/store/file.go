package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"github.com/aman/scriptline/internal/types"
)

// FileStore implements Store on JSON documents under a data directory.
// Every read-modify-write runs under a process-wide mutex plus an
// exclusive flock, so a manual trigger overlapping a scheduled run
// cannot duplicate a number or a job. The mutex excludes goroutines in
// this process; the flock excludes other processes (it does not block
// a second Lock on the same handle).
//
// Layout:
//
//	<dir>/counters.json             {"user": {"video": n, "audio": n}}
//	<dir>/processed/<scope>.json    ["videoID", ...]
//	<dir>/batches.json              [BatchRecord, ...]
type FileStore struct {
	dir  string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileStore creates the data directory if needed and returns a store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, "processed"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".store.lock")),
	}, nil
}

// Close releases the store. The flock is only held inside operations.
func (s *FileStore) Close() error { return nil }

// withLock runs fn while holding both the in-process mutex and the
// cross-process flock.
func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire store lock: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

// counters is the on-disk shape of counters.json.
type counters map[string]map[string]int

// IssueVideoNumber issues the next video number for a user.
func (s *FileStore) IssueVideoNumber(ctx context.Context, username string) (int, error) {
	return s.issue(ctx, username, counterVideo)
}

// IssueAudioCounter issues the next audio counter for a user.
func (s *FileStore) IssueAudioCounter(ctx context.Context, username string) (int, error) {
	return s.issue(ctx, username, counterAudio)
}

func (s *FileStore) issue(ctx context.Context, username, kind string) (int, error) {
	path := filepath.Join(s.dir, "counters.json")
	var issued int
	err := s.withLock(ctx, func() error {
		all := counters{}
		if err := readJSON(path, &all); err != nil {
			return err
		}
		userCounters := all[username]
		if userCounters == nil {
			userCounters = map[string]int{}
			all[username] = userCounters
		}
		next := userCounters[kind]
		if next == 0 {
			next = 1
		}
		issued = next
		userCounters[kind] = next + 1
		return writeJSON(path, all)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to issue %s number for %s: %w", kind, username, err)
	}
	return issued, nil
}

func (s *FileStore) processedPath(scope string) string {
	return filepath.Join(s.dir, "processed", scope+".json")
}

// IsProcessed reports membership in the scope's dedup set.
func (s *FileStore) IsProcessed(ctx context.Context, scope, videoID string) (bool, error) {
	var found bool
	err := s.withLock(ctx, func() error {
		var ids []string
		if err := readJSON(s.processedPath(scope), &ids); err != nil {
			return err
		}
		for _, id := range ids {
			if id == videoID {
				found = true
				break
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check processed state: %w", err)
	}
	return found, nil
}

// MarkProcessed appends to the scope's dedup set; re-marking is a no-op
// for contents but still rewrites the file.
func (s *FileStore) MarkProcessed(ctx context.Context, scope, videoID string) error {
	err := s.withLock(ctx, func() error {
		path := s.processedPath(scope)
		var ids []string
		if err := readJSON(path, &ids); err != nil {
			return err
		}
		for _, id := range ids {
			if id == videoID {
				return writeJSON(path, ids)
			}
		}
		return writeJSON(path, append(ids, videoID))
	})
	if err != nil {
		return fmt.Errorf("failed to mark %s processed: %w", videoID, err)
	}
	return nil
}

func (s *FileStore) batchesPath() string {
	return filepath.Join(s.dir, "batches.json")
}

// CreateBatch persists a new batch record.
func (s *FileStore) CreateBatch(ctx context.Context, batch *types.BatchRecord) error {
	return s.withLock(ctx, func() error {
		var batches []types.BatchRecord
		if err := readJSON(s.batchesPath(), &batches); err != nil {
			return err
		}
		return writeJSON(s.batchesPath(), append(batches, *batch))
	})
}

// UpdateBatch rewrites a batch record in place.
func (s *FileStore) UpdateBatch(ctx context.Context, batch *types.BatchRecord) error {
	return s.withLock(ctx, func() error {
		var batches []types.BatchRecord
		if err := readJSON(s.batchesPath(), &batches); err != nil {
			return err
		}
		for i := range batches {
			if batches[i].ID == batch.ID {
				batches[i] = *batch
				return writeJSON(s.batchesPath(), batches)
			}
		}
		return fmt.Errorf("batch not found: %s", batch.ID)
	})
}

// ListBatches returns batches newest first, optionally filtered by status.
func (s *FileStore) ListBatches(ctx context.Context, status string) ([]types.BatchRecord, error) {
	var result []types.BatchRecord
	err := s.withLock(ctx, func() error {
		var batches []types.BatchRecord
		if err := readJSON(s.batchesPath(), &batches); err != nil {
			return err
		}
		for _, b := range batches {
			if status == "" || b.Status == status {
				result = append(result, b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result, nil
}

// readJSON loads a JSON file into v; a missing file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v atomically: temp file then rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
