package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidmase/bananina/internal/domain"
	"github.com/vidmase/bananina/internal/studio"
)

func waitTerminal(t *testing.T, r *Registry, id string) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		e, ok := r.jobs[id]
		var snap Snapshot
		if ok {
			snap = e.snap
		}
		r.mu.Unlock()
		require.True(t, ok, "job %s vanished", id)
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return Snapshot{}
}

func TestRegistrySuccessIsConsumedOnRead(t *testing.T) {
	r := NewRegistry(Options{MaxConcurrent: 1})
	snap, err := r.Start(KindImage, func(ctx context.Context, progress studio.ProgressFunc) (*studio.Result, error) {
		progress("Uploading image")
		return &studio.Result{TaskID: "t-1", Payload: domain.Payload{MIMEType: "image/png", Data: []byte{1}}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, snap.Status)
	assert.NotEmpty(t, snap.ID)

	waitTerminal(t, r, snap.ID)
	got, err := r.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "t-1", got.Result.TaskID)

	_, err = r.Get(snap.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryFailure(t *testing.T) {
	r := NewRegistry(Options{})
	boom := errors.New("boom")
	snap, err := r.Start(KindVideo, func(context.Context, studio.ProgressFunc) (*studio.Result, error) {
		return nil, boom
	})
	require.NoError(t, err)

	final := waitTerminal(t, r, snap.ID)
	assert.Equal(t, StatusFailed, final.Status)
	assert.ErrorIs(t, final.Err, boom)
	assert.Nil(t, final.Result)
}

func TestRegistryProgressWhileRunning(t *testing.T) {
	r := NewRegistry(Options{})
	release := make(chan struct{})
	reported := make(chan struct{})
	snap, err := r.Start(KindImage, func(ctx context.Context, progress studio.ProgressFunc) (*studio.Result, error) {
		progress("Editing image... 2s elapsed (processing)")
		close(reported)
		<-release
		return &studio.Result{}, nil
	})
	require.NoError(t, err)
	<-reported

	got, err := r.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, "Editing image... 2s elapsed (processing)", got.Progress)

	// a non-terminal read keeps the job
	close(release)
	waitTerminal(t, r, snap.ID)
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry(Options{})
	started := make(chan struct{})
	snap, err := r.Start(KindVideo, func(ctx context.Context, progress studio.ProgressFunc) (*studio.Result, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-started

	require.NoError(t, r.Cancel(snap.ID))
	final := waitTerminal(t, r, snap.ID)
	assert.Equal(t, StatusCanceled, final.Status)

	require.NoError(t, r.Cancel(snap.ID))
	assert.ErrorIs(t, r.Cancel(snap.ID), ErrNotFound)
}

func TestRegistryBoundsConcurrencyAndBacklog(t *testing.T) {
	r := NewRegistry(Options{MaxConcurrent: 1, MaxPending: 2})
	release := make(chan struct{})
	block := func(ctx context.Context, progress studio.ProgressFunc) (*studio.Result, error) {
		<-release
		return &studio.Result{}, nil
	}
	first, err := r.Start(KindImage, block)
	require.NoError(t, err)
	second, err := r.Start(KindImage, block)
	require.NoError(t, err)
	_, err = r.Start(KindImage, block)
	assert.ErrorIs(t, err, ErrTooManyJobs)
	assert.Equal(t, 2, r.Active())

	// only one job holds the slot
	time.Sleep(20 * time.Millisecond)
	running := 0
	for _, id := range []string{first.ID, second.ID} {
		got, err := r.Get(id)
		require.NoError(t, err)
		if got.Status == StatusRunning {
			running++
		}
	}
	assert.Equal(t, 1, running)

	close(release)
	waitTerminal(t, r, first.ID)
	waitTerminal(t, r, second.ID)
}

func TestRegistryShutdown(t *testing.T) {
	r := NewRegistry(Options{})
	_, err := r.Start(KindVideo, func(ctx context.Context, progress studio.ProgressFunc) (*studio.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
	_, err = r.Start(KindImage, nil)
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestRegistryDropsUnreadResultsAfterRetention(t *testing.T) {
	r := NewRegistry(Options{MaxConcurrent: 2, MaxPending: 2, Retention: time.Minute})
	var clock atomic.Int64
	clock.Store(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).UnixNano())
	r.now = func() time.Time { return time.Unix(0, clock.Load()) }

	run := func(context.Context, studio.ProgressFunc) (*studio.Result, error) {
		return &studio.Result{Payload: domain.Payload{MIMEType: "video/mp4", Data: make([]byte, 1<<20)}}, nil
	}
	var ids []string
	for i := 0; i < 5; i++ {
		snap, err := r.Start(KindVideo, run)
		require.NoError(t, err)
		waitTerminal(t, r, snap.ID)
		ids = append(ids, snap.ID)
	}
	assert.Equal(t, 0, r.Active())
	assert.Equal(t, 5, r.Len())

	// still inside the window: results wait for their reader
	clock.Add(int64(30 * time.Second))
	got, err := r.Get(ids[0])
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, 4, r.Len())

	clock.Add(int64(2 * time.Minute))
	_, err = r.Get(ids[1])
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryRetentionKeepsRunningJobs(t *testing.T) {
	r := NewRegistry(Options{Retention: time.Minute})
	var clock atomic.Int64
	clock.Store(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).UnixNano())
	r.now = func() time.Time { return time.Unix(0, clock.Load()) }

	release := make(chan struct{})
	snap, err := r.Start(KindVideo, func(ctx context.Context, progress studio.ProgressFunc) (*studio.Result, error) {
		<-release
		return &studio.Result{}, nil
	})
	require.NoError(t, err)

	clock.Add(int64(time.Hour))
	got, err := r.Get(snap.ID)
	require.NoError(t, err)
	assert.False(t, got.Status.Terminal())

	close(release)
	waitTerminal(t, r, snap.ID)
}
