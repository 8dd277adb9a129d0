package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biome/internal/slogutil"
)

func TestNewJob(t *testing.T) {
	job, err := NewJob(JobTypeScan, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobTypeScan, job.Type)
	assert.Equal(t, JobQueued, job.Status)
	assert.Empty(t, job.Scope)

	other, err := NewJob(JobTypeOrganize, OrganizeScope{TargetDirectory: "/x", Strategy: "size"})
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, other.ID)

	scope, err := ParseOrganizeScope(other.Scope)
	require.NoError(t, err)
	assert.Equal(t, "/x", scope.TargetDirectory)
	assert.Equal(t, "size", scope.Strategy)
}

func TestParseScopes(t *testing.T) {
	s, err := ParseOrganizeScope(nil)
	require.NoError(t, err)
	assert.Equal(t, "type", s.Strategy)

	scan, err := ParseScanScope(json.RawMessage(`{"path":"/a"}`))
	require.NoError(t, err)
	assert.Equal(t, "/a", scan.Path)

	_, err = ParseScanScope(json.RawMessage(`{`))
	assert.Error(t, err)
}

func TestJobTransitions(t *testing.T) {
	job, _ := NewJob(JobTypeScan, nil)
	assert.True(t, job.CanCancel())
	assert.False(t, job.IsTerminal())
	assert.Zero(t, job.Duration())

	job.MarkStarted()
	assert.Equal(t, JobRunning, job.Status)
	job.SetProgress(150)
	assert.Equal(t, 100, job.Progress)
	job.SetProgress(-1)
	assert.Equal(t, 0, job.Progress)

	require.NoError(t, job.MarkCompleted(map[string]int{"files": 3}))
	assert.True(t, job.IsTerminal())
	assert.False(t, job.CanCancel())
	assert.JSONEq(t, `{"files":3}`, string(job.Result))

	failed, _ := NewJob(JobTypeScan, nil)
	failed.MarkFailed(errors.New("boom"))
	assert.Equal(t, "boom", failed.Error)
	assert.Equal(t, JobFailed, failed.ToSummary().Status)
}

func TestJobTerminalStatesAreSticky(t *testing.T) {
	job, _ := NewJob(JobTypeScan, nil)
	job.MarkStarted()
	require.NoError(t, job.MarkCompleted("done"))
	settled := *job.CompletedAt

	job.MarkCancelled()
	job.MarkFailed(errors.New("late"))
	job.MarkStarted()
	assert.Equal(t, JobCompleted, job.Status)
	assert.Empty(t, job.Error)
	assert.Equal(t, settled, *job.CompletedAt)
	assert.JSONEq(t, `"done"`, string(job.Result))
}

func TestJobUnencodableResultStaysOpen(t *testing.T) {
	job, _ := NewJob(JobTypeScan, nil)
	job.MarkStarted()
	require.Error(t, job.MarkCompleted(make(chan int)))
	assert.Equal(t, JobRunning, job.Status)

	job.MarkFailed(errors.New("encode"))
	assert.Equal(t, JobFailed, job.Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestStore(t *testing.T) {
	s := NewStore()
	a, _ := NewJob(JobTypeScan, nil)
	b, _ := NewJob(JobTypeOrganize, nil)
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	require.NoError(t, s.CreateJob(a))
	require.NoError(t, s.CreateJob(b))
	assert.Error(t, s.CreateJob(a))

	got, err := s.GetJob(a.ID)
	require.NoError(t, err)
	got.Status = JobFailed
	again, _ := s.GetJob(a.ID)
	assert.Equal(t, JobQueued, again.Status)

	missing, err := s.GetJob("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := s.ListJobs(ListJobsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalCount)
	assert.Equal(t, b.ID, list.Jobs[0].ID)

	list, _ = s.ListJobs(ListJobsOptions{Type: []JobType{JobTypeScan}})
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, a.ID, list.Jobs[0].ID)

	list, _ = s.ListJobs(ListJobsOptions{Limit: 1, Offset: 1})
	assert.Equal(t, 2, list.TotalCount)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, a.ID, list.Jobs[0].ID)

	a.MarkCompleted(nil)
	old := time.Now().UTC().Add(-2 * time.Hour)
	a.CompletedAt = &old
	require.NoError(t, s.UpdateJob(a))
	assert.Equal(t, 1, s.CleanupOldJobs(time.Hour))
	assert.Error(t, s.UpdateJob(a))
}

func waitForStatus(t *testing.T, r *Runner, id string, want JobStatus) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		job, _ = r.GetJob(id)
		return job != nil && job.Status == want
	}, 5*time.Second, 5*time.Millisecond)
	return job
}

func newRunner(t *testing.T, cfg RunnerConfig) *Runner {
	t.Helper()
	r := NewRunner(nil, slogutil.NewDiscardLogger(), cfg)
	r.Start()
	t.Cleanup(func() { _ = r.Stop(5 * time.Second) })
	return r
}

func TestRunner_RegisteredHandler(t *testing.T) {
	r := newRunner(t, DefaultRunnerConfig())
	r.RegisterHandler(JobTypeScan, func(ctx context.Context, job *Job, progress func(int)) (interface{}, error) {
		scope, err := ParseScanScope(job.Scope)
		if err != nil {
			return nil, err
		}
		progress(50)
		return map[string]string{"scanned": scope.Path}, nil
	})

	job, err := NewJob(JobTypeScan, ScanScope{Path: "/data"})
	require.NoError(t, err)
	require.NoError(t, r.Submit(job))

	done := waitForStatus(t, r, job.ID, JobCompleted)
	assert.Equal(t, 100, done.Progress)
	assert.JSONEq(t, `{"scanned":"/data"}`, string(done.Result))
}

func TestRunner_GoAndFailure(t *testing.T) {
	r := newRunner(t, DefaultRunnerConfig())
	finished := make(chan *Job, 1)
	r.OnFinish = func(j *Job) { finished <- j }

	job, err := r.Go(JobTypeDuplicates, nil, func(ctx context.Context, job *Job, progress func(int)) (interface{}, error) {
		return nil, errors.New("disk on fire")
	})
	require.NoError(t, err)
	assert.Equal(t, JobQueued, job.Status)

	failed := waitForStatus(t, r, job.ID, JobFailed)
	assert.Equal(t, "disk on fire", failed.Error)
	select {
	case j := <-finished:
		assert.Equal(t, job.ID, j.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("OnFinish not called")
	}
	assert.Equal(t, int64(1), r.Stats().Failed)
}

func TestRunner_NoHandler(t *testing.T) {
	r := newRunner(t, DefaultRunnerConfig())
	job, _ := NewJob(JobTypeOrganize, nil)
	require.NoError(t, r.Submit(job))
	failed := waitForStatus(t, r, job.ID, JobFailed)
	assert.Contains(t, failed.Error, "no handler")
}

func TestRunner_CancelRunning(t *testing.T) {
	r := newRunner(t, DefaultRunnerConfig())
	started := make(chan struct{})
	job, err := r.Go(JobTypeScan, nil, func(ctx context.Context, job *Job, progress func(int)) (interface{}, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-started

	require.NoError(t, r.Cancel(job.ID))
	waitForStatus(t, r, job.ID, JobCancelled)
	assert.ErrorIs(t, r.Cancel(job.ID), ErrNotCancellable)
	assert.ErrorIs(t, r.Cancel("missing"), ErrJobNotFound)
}

func TestRunner_QueueFull(t *testing.T) {
	r := NewRunner(nil, slogutil.NewDiscardLogger(), RunnerConfig{QueueSize: 1, WorkerCount: 1})
	// not started: nothing drains the queue
	noop := func(ctx context.Context, job *Job, progress func(int)) (interface{}, error) { return nil, nil }

	_, err := r.Go(JobTypeScan, nil, noop)
	require.NoError(t, err)
	_, err = r.Go(JobTypeScan, nil, noop)
	assert.ErrorIs(t, err, ErrQueueFull)

	require.NoError(t, r.Stop(time.Second))
	assert.False(t, r.IsRunning())
	_, err = r.Go(JobTypeScan, nil, noop)
	assert.ErrorIs(t, err, ErrStopped)

	list, _ := r.ListJobs(ListJobsOptions{Status: []JobStatus{JobCancelled}})
	assert.Equal(t, 1, list.TotalCount)
}
