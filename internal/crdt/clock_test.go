package crdt

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(ms int64) func() time.Time {
	return func() time.Time {
		return time.UnixMilli(ms)
	}
}

func TestNewOpClock(t *testing.T) {
	clock := NewOpClock("device-a", 7, 1000)

	require.NotNil(t, clock)
	assert.Equal(t, "device-a", clock.DeviceID())

	lastOpID, lastTs := clock.State()
	assert.Equal(t, int64(7), lastOpID)
	assert.Equal(t, int64(1000), lastTs)
}

func TestOpClock_Next(t *testing.T) {
	clock := NewOpClock("device-a", 0, 0).WithNow(fixedNow(500))

	tests := []struct {
		name       string
		expectedOp int64
		expectedTs int64
	}{
		{"first key uses wall clock", 1, 500},
		{"same millisecond bumps timestamp", 2, 501},
		{"third key", 3, 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := clock.Next()
			assert.Equal(t, "device-a", key.DeviceID)
			assert.Equal(t, tt.expectedOp, key.OpID)
			assert.Equal(t, tt.expectedTs, key.TimestampEpochMs)
		})
	}
}

func TestOpClock_Next_ClockGoesBackwards(t *testing.T) {
	clock := NewOpClock("device-a", 10, 5000).WithNow(fixedNow(100))

	key := clock.Next()
	assert.Equal(t, int64(11), key.OpID)
	assert.Equal(t, int64(5001), key.TimestampEpochMs, "timestamp must never decrease")
}

func TestOpClock_Observe(t *testing.T) {
	clock := NewOpClock("device-a", 0, 0).WithNow(fixedNow(100))

	// Удаленная запись из будущего (рассинхронизация часов)
	clock.Observe(9000)
	key := clock.Next()
	assert.Equal(t, int64(9001), key.TimestampEpochMs)

	// Наблюдение старого timestamp ничего не меняет
	clock.Observe(10)
	key = clock.Next()
	assert.Equal(t, int64(9002), key.TimestampEpochMs)
}

func TestOpClock_Reset(t *testing.T) {
	clock := NewOpClock("device-a", 42, 100).WithNow(fixedNow(50))

	clock.Reset(2000)

	key := clock.Next()
	assert.Equal(t, int64(1), key.OpID, "op counter restarts after explicit reset")
	assert.Equal(t, int64(2001), key.TimestampEpochMs, "keys after reset are newer than resetAt")
}

func TestOpClock_Concurrent(t *testing.T) {
	clock := NewOpClock("device-a", 0, 0)

	const workers = 10
	const perWorker = 100

	var mu sync.Mutex
	seen := make(map[int64]bool)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				key := clock.Next()
				mu.Lock()
				seen[key.OpID] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker, "every op id must be unique")
	lastOpID, _ := clock.State()
	assert.Equal(t, int64(workers*perWorker), lastOpID)
}
