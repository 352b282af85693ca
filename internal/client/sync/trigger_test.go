package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/confsync/internal/models"
)

func TestTrigger_CoalescesRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := NewTrigger()
	started := make(chan struct{}, 10)
	release := make(chan struct{})
	var runs atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- tr.Run(ctx, func(ctx context.Context) error {
			runs.Add(1)
			started <- struct{}{}
			<-release
			return nil
		}, nil)
	}()

	tr.Request()
	<-started

	// Запросы во время цикла схлопываются в один повтор
	for range 5 {
		tr.Request()
	}
	release <- struct{}{}
	<-started
	release <- struct{}{}

	require.Never(t, func() bool { return runs.Load() > 2 }, 100*time.Millisecond, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), runs.Load())
}

func TestTrigger_ReportsErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := NewTrigger()
	errs := make(chan error, 10)
	results := []error{models.ErrCycleInProgress, errors.New("boom")}
	var calls atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- tr.Run(ctx, func(ctx context.Context) error {
			return results[calls.Add(1)-1]
		}, func(err error) { errs <- err })
	}()

	tr.Request()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	tr.Request()

	select {
	case err := <-errs:
		assert.EqualError(t, err, "boom")
	case <-time.After(5 * time.Second):
		t.Fatal("error was not reported")
	}
	assert.Empty(t, errs, "cycle in progress is not an error")

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), calls.Load(), "failed cycle is not retried")
}
