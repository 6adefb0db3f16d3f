package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/retry"
)

func TestExponentialBackoffFormula(t *testing.T) {
	b := retry.Exponential{Base: 100 * time.Millisecond, Multiplier: 2, Max: time.Second}
	require.Equal(t, time.Duration(0), b.Delay(-1))
	require.Equal(t, 100*time.Millisecond, b.Delay(0))
	require.Equal(t, 200*time.Millisecond, b.Delay(1))
	require.Equal(t, 400*time.Millisecond, b.Delay(2))
	require.Equal(t, time.Second, b.Delay(10)) // clamped to Max
}

func TestFixedBackoff(t *testing.T) {
	b := retry.Fixed{Delay_: 50 * time.Millisecond}
	require.Equal(t, 50*time.Millisecond, b.Delay(0))
	require.Equal(t, 50*time.Millisecond, b.Delay(5))
	require.Equal(t, time.Duration(0), b.Delay(-1))
}

func TestPolicyRetriesThenSucceeds(t *testing.T) {
	p := retry.Policy{MaxAttempts: 3, Backoff: retry.Fixed{Delay_: time.Millisecond}}
	attempts := 0
	err := p.Run(context.Background(), "n", func(ctx context.Context, attempt int) error {
		attempts++
		if attempts < 3 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestPolicyExhaustsAttemptsAndFails(t *testing.T) {
	p := retry.Policy{MaxAttempts: 2, Backoff: retry.Fixed{Delay_: time.Millisecond}}
	attempts := 0
	err := p.Run(context.Background(), "n", func(ctx context.Context, attempt int) error {
		attempts++
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 2, attempts)
}

func TestPolicyHonoursCancellationDuringBackoff(t *testing.T) {
	p := retry.Policy{MaxAttempts: 5, Backoff: retry.Fixed{Delay_: time.Second}}
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Run(ctx, "n", func(ctx context.Context, attempt int) error {
		attempts++
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}
