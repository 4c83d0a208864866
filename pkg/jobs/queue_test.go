package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("backups", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "1"}))
}

func TestQueueStopDrainsAcceptedJobs(t *testing.T) {
	var handled int32
	q := NewQueue("backups", func(context.Context, Job) error {
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "backup"}))
	}
	q.Stop()

	assert.Equal(t, int32(5), atomic.LoadInt32(&handled))
	require.Error(t, q.Enqueue(Job{ID: "late"}))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	q := NewQueue("backups", func(context.Context, Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("disk busy")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	q.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var attempts int32
	q := NewQueue("backups", func(context.Context, Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("read-only filesystem")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	q.Stop()

	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestQueueTryEnqueueDoesNotBlockWhenFull(t *testing.T) {
	busy := make(chan struct{})
	release := make(chan struct{})
	var handled int32
	q := NewQueue("backups", func(_ context.Context, job Job) error {
		if job.ID == "first" {
			close(busy)
			<-release
		}
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.TryEnqueue(Job{ID: "first"}))
	<-busy
	require.NoError(t, q.TryEnqueue(Job{ID: "second"}))

	err := q.TryEnqueue(Job{ID: "third"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	q.Stop()
	assert.Equal(t, int32(2), atomic.LoadInt32(&handled))
}
