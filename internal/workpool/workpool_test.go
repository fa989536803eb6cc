package workpool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ResultsInTaskOrder(t *testing.T) {
	tasks := []int{5, 1, 4, 2, 3}
	results, err := Run(context.Background(), 3, tasks, FailFast, func(_ context.Context, n int) (string, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return fmt.Sprintf("unit-%d", n), nil
	})
	require.NoError(t, err)
	require.Len(t, results, len(tasks))
	for i, r := range results {
		assert.Equal(t, tasks[i], r.Task)
		assert.Equal(t, fmt.Sprintf("unit-%d", tasks[i]), r.Value)
		assert.NoError(t, r.Err)
	}
}

func TestRun_RespectsWorkerLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	tasks := make([]int, 20)

	_, err := Run(context.Background(), 2, tasks, FailFast, func(_ context.Context, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_FailFastSkipsRemainingUnits(t *testing.T) {
	boom := errors.New("corrupt archive")
	tasks := []int{0, 1, 2, 3, 4, 5, 6, 7}
	var ran atomic.Int32

	results, err := Run(context.Background(), 1, tasks, FailFast, func(_ context.Context, n int) (int, error) {
		ran.Add(1)
		if n == 1 {
			return 0, boom
		}
		return n, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Less(t, ran.Load(), int32(len(tasks)))

	assert.NoError(t, results[0].Err)
	assert.True(t, errors.Is(results[1].Err, boom))
	assert.True(t, errors.Is(results[len(tasks)-1].Err, context.Canceled))
}

func TestRun_ContinueOnErrorRunsEverything(t *testing.T) {
	tasks := []int{0, 1, 2, 3, 4}
	var ran atomic.Int32

	results, err := Run(context.Background(), 2, tasks, ContinueOnError, func(_ context.Context, n int) (int, error) {
		ran.Add(1)
		if n%2 == 1 {
			return 0, fmt.Errorf("unit %d failed", n)
		}
		return n * 10, nil
	})
	require.Error(t, err)
	assert.Equal(t, int32(5), ran.Load())
	assert.Contains(t, err.Error(), "unit 1 failed")
	assert.Contains(t, err.Error(), "unit 3 failed")

	failed := Failed(results)
	require.Len(t, failed, 2)
	assert.Equal(t, 1, failed[0].Task)
	assert.Equal(t, 3, failed[1].Task)
	assert.Equal(t, 40, results[4].Value)
}

func TestRun_CancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, 2, []string{"a", "b"}, ContinueOnError, func(_ context.Context, s string) (string, error) {
		return s, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	for _, r := range results {
		assert.True(t, errors.Is(r.Err, context.Canceled))
	}
}

func TestRun_NoTasks(t *testing.T) {
	results, err := Run(context.Background(), 4, nil, FailFast, func(_ context.Context, s string) (int, error) {
		return 0, nil
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDefaultWorkers(t *testing.T) {
	assert.Equal(t, 7, DefaultWorkers(7))
	assert.GreaterOrEqual(t, DefaultWorkers(0), 1)
	assert.Equal(t, DefaultWorkers(0), DefaultWorkers(-3))
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "fail-fast", FailFast.String())
	assert.Equal(t, "continue-on-error", ContinueOnError.String())
}
