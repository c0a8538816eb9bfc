package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobs(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	done := make(chan struct{}, 2)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.Type)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{})

	require.ErrorIs(t, q.Enqueue(Job{Type: "early"}), ErrNotStarted)

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{Type: "a"}))
	require.NoError(t, q.Enqueue(Job{Type: "b"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job did not run")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, seen)
}

func TestQueueCoalescesWaitingKeys(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	var runs atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		runs.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{Key: "warm"}))
	<-started // first job is running, its key is free again

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{Key: "warm"}))
	}
	close(release)
	<-started

	q.Stop()
	assert.Equal(t, int32(2), runs.Load())
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts atomic.Int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("redis down")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Key: "warm"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(3), attempts.Load())
}

func TestQueueReportsFullBuffer(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if job.Type == "first" {
			close(started)
		}
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{Type: "first"}))
	<-started
	require.NoError(t, q.Enqueue(Job{Type: "second"}))
	assert.ErrorIs(t, q.Enqueue(Job{Type: "third"}), ErrQueueFull)

	close(block)
	q.Stop()
}
