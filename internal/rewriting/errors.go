package rewriting

import (
	"errors"
	"fmt"

	"github.com/aman/scriptline/internal/llm"
)

// CallError represents a failed rewrite call for one chunk. The first
// failed chunk aborts the whole item, so ChunkIndex identifies where the
// run stopped.
type CallError struct {
	ChunkIndex int
	Message    string
	Cause      error
}

func (e *CallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rewrite failed on chunk %d: %s: %v", e.ChunkIndex, e.Message, e.Cause)
	}
	return fmt.Sprintf("rewrite failed on chunk %d: %s", e.ChunkIndex, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.Cause
}

// IsSafetyBlocked reports whether err is a content-safety rejection from
// the generation backend.
func IsSafetyBlocked(err error) bool {
	return errors.Is(err, llm.ErrSafetyBlocked)
}
