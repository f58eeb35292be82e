package flushq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobsRunInSubmissionOrder(t *testing.T) {
	e := New(Config{QueueSize: 32})
	defer e.Stop()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 10; i++ {
		i := i
		err := e.Submit(context.Background(), JobFunc(func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
		require.NoError(t, err)
	}
	require.NoError(t, e.Barrier(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 10)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestRetryUntilSuccess(t *testing.T) {
	e := New(Config{QueueSize: 8, MaxAttempts: 5, BaseBackoff: time.Millisecond, MaxInterval: 2 * time.Millisecond})
	defer e.Stop()

	var mu sync.Mutex
	attempts := 0
	err := e.Submit(context.Background(), JobFunc(func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}))
	require.NoError(t, err)
	require.NoError(t, e.Barrier(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}

func TestExhaustedRetriesReachErrorHandler(t *testing.T) {
	handled := make(chan error, 1)
	e := New(Config{
		QueueSize:   8,
		MaxAttempts: 2,
		BaseBackoff: time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
		ErrorHandler: func(err error) {
			select {
			case handled <- err:
			default:
			}
		},
	})
	defer e.Stop()

	sentinel := errors.New("permanent")
	require.NoError(t, e.Submit(context.Background(), JobFunc(func(context.Context) error {
		return sentinel
	})))
	require.NoError(t, e.Barrier(context.Background()))

	select {
	case err := <-handled:
		assert.ErrorIs(t, err, sentinel)
	case <-time.After(time.Second):
		t.Fatal("error handler was not invoked")
	}
}

func TestSubmitAfterStop(t *testing.T) {
	e := New(Config{QueueSize: 8})
	e.Stop()
	err := e.Submit(context.Background(), JobFunc(func(context.Context) error { return nil }))
	assert.ErrorIs(t, err, ErrExecutorClosed)
}

func TestQueueFullBackPressure(t *testing.T) {
	e := New(Config{QueueSize: 1, EnqueueTimeout: 5 * time.Millisecond})
	defer e.Stop()

	block := make(chan struct{})
	// First job occupies the worker; the second fills the queue.
	require.NoError(t, e.Submit(context.Background(), JobFunc(func(context.Context) error {
		<-block
		return nil
	})))
	// Give the worker time to pick up the blocking job.
	deadline := time.Now().Add(time.Second)
	var err error
	for time.Now().Before(deadline) {
		err = e.Submit(context.Background(), JobFunc(func(context.Context) error { return nil }))
		if err == nil {
			break
		}
	}
	require.NoError(t, err)

	err = e.Submit(context.Background(), JobFunc(func(context.Context) error { return nil }))
	assert.ErrorIs(t, err, ErrQueueFull)

	close(block)
}

func TestStopDrainsQueuedJobs(t *testing.T) {
	e := New(Config{QueueSize: 32})

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Submit(context.Background(), JobFunc(func(context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})))
	}
	e.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, ran)
}
