// Package queue submits rendered scripts to the external media synthesis
// queue and reads queue state back. The queue host owns job execution;
// this package only enqueues and observes.
package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aman/scriptline/internal/types"
)

// DefaultTimeout is the default HTTP request timeout for queue calls.
const DefaultTimeout = 30 * time.Second

// Error represents a failure talking to the queue host.
type Error struct {
	Endpoint string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("queue error for %s: %s: %v", e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("queue error for %s: %s", e.Endpoint, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Client talks to the queue host's HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a queue client for the given host. The API key is
// sent on every request as X-API-Key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// JobStatus is one job as reported by the queue host.
type JobStatus struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	ChannelCode string `json:"channel_code"`
	VideoNumber int    `json:"video_number"`
	CreatedAt   string `json:"created_at,omitempty"`
	ErrorDetail string `json:"error,omitempty"`
}

// Stats is the queue host's aggregate view.
type Stats struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// submitResponse is the queue host's acknowledgement of an enqueue.
type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// NewJobID mints a fresh queue job identifier. Job IDs are independent
// of video numbers and are never reused, even across retries of the
// same source video.
func NewJobID() string {
	return uuid.New().String()
}

// Submit enqueues one audio job. The payload is validated against the
// wire schema before leaving the process. A transport or server failure
// returns an error without retrying; the caller decides what a failed
// submission costs.
func (c *Client) Submit(ctx context.Context, job *types.JobRecord) (*JobStatus, error) {
	endpoint := c.baseURL + "/queue/audio/jobs"

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to encode job", Cause: err}
	}
	if err := ValidateJobPayload(payload); err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "invalid job payload", Cause: err}
	}

	body, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var ack submitResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to decode response", Cause: err}
	}
	return &JobStatus{JobID: ack.JobID, Status: ack.Status, ChannelCode: job.ChannelCode, VideoNumber: job.VideoNumber}, nil
}

// ListJobs returns jobs known to the queue host, optionally filtered by
// status ("queued", "processing", "completed", "failed").
func (c *Client) ListJobs(ctx context.Context, status string) ([]JobStatus, error) {
	endpoint := c.baseURL + "/queue/audio/jobs"
	if status != "" {
		endpoint += "?status=" + status
	}

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Jobs []JobStatus `json:"jobs"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to decode response", Cause: err}
	}
	return result.Jobs, nil
}

// GetStats returns the queue host's aggregate counters.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	endpoint := c.baseURL + "/queue/audio/stats"

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to decode response", Cause: err}
	}
	return &stats, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := truncateDetail(strings.TrimSpace(string(body)), 200)
		return nil, &Error{Endpoint: endpoint, Message: fmt.Sprintf("HTTP status %d: %s", resp.StatusCode, detail)}
	}
	return body, nil
}

// truncateDetail shortens an error body for the message, cutting on a
// rune boundary so multi-byte characters are never split.
func truncateDetail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
