package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorRunsTasksSequentially(t *testing.T) {
	exec := NewExecutor("test", ExecutorConfig{})
	exec.Start(context.Background())
	defer exec.Stop()

	var (
		active  int
		maxSeen int
		total   int
		mu      sync.Mutex
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := exec.Do(context.Background(), func(context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				total++
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 50, total)
}

func TestExecutorReturnsTaskError(t *testing.T) {
	exec := NewExecutor("test", ExecutorConfig{})
	exec.Start(context.Background())
	defer exec.Stop()

	boom := errors.New("boom")
	err := exec.Do(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestExecutorRecoversPanics(t *testing.T) {
	exec := NewExecutor("test", ExecutorConfig{})
	exec.Start(context.Background())
	defer exec.Stop()

	err := exec.Do(context.Background(), func(context.Context) error { panic("bad") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	assert.NoError(t, exec.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestExecutorSkipsCancelledTasks(t *testing.T) {
	exec := NewExecutor("test", ExecutorConfig{})
	exec.Start(context.Background())
	defer exec.Stop()

	release := make(chan struct{})
	blocked := make(chan struct{})
	go func() {
		_ = exec.Do(context.Background(), func(context.Context) error {
			close(blocked)
			<-release
			return nil
		})
	}()
	<-blocked

	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	result := make(chan error, 1)
	go func() {
		result <- exec.Do(ctx, func(context.Context) error {
			ran = true
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	close(release)

	assert.ErrorIs(t, <-result, context.Canceled)
	assert.False(t, ran)
}

func TestExecutorNotStarted(t *testing.T) {
	exec := NewExecutor("test", ExecutorConfig{})
	err := exec.Do(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)

	exec.Start(context.Background())
	exec.Stop()
	err = exec.Do(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}
