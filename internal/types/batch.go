package types

import "time"

// Batch status values. A batch found in StatusRunning after a process
// restart was interrupted mid-flight; the CLI surfaces these so the
// operator can re-trigger.
const (
	BatchRunning     = "running"
	BatchCompleted   = "completed"
	BatchInterrupted = "interrupted"
)

// BatchRecord is the durable handle for one background batch run
// (manual trigger or scheduled). Persisted before the first item starts.
type BatchRecord struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	ChannelCode string     `json:"channel_code"`
	Requested   int        `json:"requested"`
	Processed   int        `json:"processed"`
	Failed      int        `json:"failed"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}
