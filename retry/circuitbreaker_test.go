package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/errs"
	"github.com/flowlinego/flowline/retry"
)

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	table := retry.NewTable(retry.BreakerConfig{FailureThreshold: 2, Timeout: time.Hour}, retry.TableOptions{})
	defer table.Close()

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		err := table.Execute(context.Background(), "node-a", func(ctx context.Context) error { return boom })
		require.ErrorIs(t, err, boom)
	}
	require.Equal(t, retry.Open, table.State("node-a"))

	err := table.Execute(context.Background(), "node-a", func(ctx context.Context) error { return nil })
	var openErr *errs.CircuitOpenError
	require.ErrorAs(t, err, &openErr)
}

func TestCircuitBreakerHalfOpensAfterTimeout(t *testing.T) {
	table := retry.NewTable(retry.BreakerConfig{FailureThreshold: 1, Timeout: 10 * time.Millisecond}, retry.TableOptions{})
	defer table.Close()

	boom := errors.New("boom")
	_ = table.Execute(context.Background(), "node-a", func(ctx context.Context) error { return boom })
	require.Equal(t, retry.Open, table.State("node-a"))

	time.Sleep(20 * time.Millisecond)

	err := table.Execute(context.Background(), "node-a", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, retry.Closed, table.State("node-a"))
}

func TestCircuitBreakerIndependentPerKey(t *testing.T) {
	table := retry.NewTable(retry.BreakerConfig{FailureThreshold: 1, Timeout: time.Hour}, retry.TableOptions{})
	defer table.Close()

	boom := errors.New("boom")
	_ = table.Execute(context.Background(), "a", func(ctx context.Context) error { return boom })
	require.Equal(t, retry.Open, table.State("a"))
	require.Equal(t, retry.Closed, table.State("b"))
}
