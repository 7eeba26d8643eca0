package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman/scriptline/internal/queue"
	"github.com/aman/scriptline/internal/scheduler"
	"github.com/aman/scriptline/internal/store"
	"github.com/aman/scriptline/internal/types"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []processRequest
	started chan struct{}
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{started: make(chan struct{}, 8)}
}

func (f *fakeRunner) RunChannel(_ context.Context, channelCode string, count int) (*scheduler.ChannelReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, processRequest{Channel: channelCode, Count: count})
	f.mu.Unlock()
	f.started <- struct{}{}
	return &scheduler.ChannelReport{ChannelCode: channelCode, Processed: count}, nil
}

type fakeQueueReader struct {
	stats *queue.Stats
	jobs  []queue.JobStatus
	err   error
}

func (f *fakeQueueReader) ListJobs(context.Context, string) ([]queue.JobStatus, error) {
	return f.jobs, f.err
}

func (f *fakeQueueReader) GetStats(context.Context) (*queue.Stats, error) {
	return f.stats, f.err
}

func newTestServer(t *testing.T, apiKey string, runner BatchRunner, q QueueReader) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	if runner == nil {
		runner = newFakeRunner()
	}
	if q == nil {
		q = &fakeQueueReader{stats: &queue.Stats{}}
	}
	return New(Config{Addr: ":0", APIKey: apiKey}, runner, st, q), st
}

func TestHealth_NoAPIKeyRequired(t *testing.T) {
	s, _ := newTestServer(t, "secret", nil, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKey_Required(t *testing.T) {
	s, _ := newTestServer(t, "secret", nil, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/batches", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/batches", nil)
	req.Header.Set("X-API-Key", "wrong")
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/batches", nil)
	req.Header.Set("X-API-Key", "secret")
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProcess_FireAndForget(t *testing.T) {
	runner := newFakeRunner()
	s, _ := newTestServer(t, "", runner, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/process",
		strings.NewReader(`{"channel": "newsdaily", "count": 2}`))
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code, "trigger returns before the batch finishes")

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("batch was never started")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "newsdaily", runner.calls[0].Channel)
	assert.Equal(t, 2, runner.calls[0].Count)
}

func TestProcess_Validation(t *testing.T) {
	s, _ := newTestServer(t, "", nil, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process",
		strings.NewReader(`{"count": 2}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process",
		strings.NewReader(`{"channel": "newsdaily", "count": -1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process",
		strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBatches(t *testing.T) {
	s, st := newTestServer(t, "", nil, nil)
	ctx := context.Background()

	require.NoError(t, st.CreateBatch(ctx, &types.BatchRecord{
		ID: "b1", Username: "alice", ChannelCode: "newsdaily",
		Requested: 2, Processed: 2,
		Status: types.BatchCompleted, StartedAt: time.Now().UTC(),
	}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/batches?status=completed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Batches []types.BatchRecord `json:"batches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Batches, 1)
	assert.Equal(t, "b1", body.Batches[0].ID)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/batches?status=running", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Batches)
}

func TestQueueStats_Proxy(t *testing.T) {
	q := &fakeQueueReader{stats: &queue.Stats{Queued: 3, Completed: 12}}
	s, _ := newTestServer(t, "", nil, q)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats queue.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Queued)
	assert.Equal(t, 12, stats.Completed)
}

func TestQueueStats_HostDown(t *testing.T) {
	q := &fakeQueueReader{err: errors.New("connection refused")}
	s, _ := newTestServer(t, "", nil, q)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/stats", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestQueueJobs_Proxy(t *testing.T) {
	q := &fakeQueueReader{jobs: []queue.JobStatus{{JobID: "j1", Status: "queued"}}}
	s, _ := newTestServer(t, "", nil, q)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/jobs?status=queued", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Jobs []queue.JobStatus `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Jobs, 1)
	assert.Equal(t, "j1", body.Jobs[0].JobID)
}
