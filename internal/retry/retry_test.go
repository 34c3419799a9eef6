package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsOnThirdAttempt(t *testing.T) {
	calls := 0
	op := func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("attempt %d failed", calls)
		}
		return "ok", nil
	}

	got, err := Do(context.Background(), op, 3, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	calls := 0
	op := func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("failure %d", calls)
	}

	_, err := Do(context.Background(), op, 2, time.Millisecond)
	require.EqualError(t, err, "failure 2")
	require.Equal(t, 2, calls)
}

func TestDo_FirstSuccessStopsImmediately(t *testing.T) {
	calls := 0
	op := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	got, err := Do(context.Background(), op, 5, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 42, got)
	require.Equal(t, 1, calls)
}

func TestDo_NonPositiveAttemptsRunOnce(t *testing.T) {
	for _, attempts := range []int{0, -3} {
		calls := 0
		_, err := Do(context.Background(), func(context.Context) (int, error) {
			calls++
			return 0, errors.New("nope")
		}, attempts, time.Millisecond)
		require.Error(t, err)
		require.Equal(t, 1, calls, "attempts=%d", attempts)
	}
}

func TestDo_WaitsConstantDelay(t *testing.T) {
	const delay = 20 * time.Millisecond
	var stamps []time.Time
	_, _ = Do(context.Background(), func(context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("nope")
	}, 3, delay)

	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		require.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), delay)
	}
}

func TestDo_PermanentErrorStopsEarly(t *testing.T) {
	calls := 0
	stop := errors.New("bad credentials")
	_, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, Permanent(stop)
	}, 5, time.Millisecond)

	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, calls)
}

func TestDo_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("nope")
	}, 5, 10*time.Millisecond)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestDoNotify_ReportsEachRetry(t *testing.T) {
	var seen []int
	_, err := DoNotify(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("nope")
	}, 3, time.Millisecond, func(_ error, attempt int, _ time.Duration) {
		seen = append(seen, attempt)
	})

	require.Error(t, err)
	require.Equal(t, []int{1, 2}, seen)
}
