package pipe_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/pipe"
)

// TestBranchFansOutToEverySubscriber covers the S3 scenario: one producer,
// multiple consumers, each seeing the full, ordered sequence.
func TestBranchFansOutToEverySubscriber(t *testing.T) {
	ctx := context.Background()
	upstream, w := pipe.New("nums", pipe.TypeOf[int](), 4)

	go func() {
		for i := 0; i < 20; i++ {
			_ = w.Send(ctx, i)
		}
		w.Close()
	}()

	subs := pipe.Branch(ctx, upstream, 3, pipe.BranchOptions{Capacity: 4})

	var wg sync.WaitGroup
	results := make([][]int, len(subs))
	for i, s := range subs {
		wg.Add(1)
		go func(i int, s *pipe.Pipe) {
			defer wg.Done()
			for {
				v, ok, err := pipe.Next[int](ctx, s)
				require.NoError(t, err)
				if !ok {
					return
				}
				results[i] = append(results[i], v)
			}
		}(i, s)
	}
	wg.Wait()

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	for i := range results {
		require.Equal(t, want, results[i], "subscriber %d should see every item in order", i)
	}
}

// TestBranchSlowConsumerBackpressuresProducer asserts that a slow subscriber
// does not let a fast sibling race arbitrarily far ahead: the fast
// subscriber never leads the slow one by more than Capacity items.
func TestBranchSlowConsumerBackpressuresProducer(t *testing.T) {
	ctx := context.Background()
	upstream, w := pipe.New("nums", pipe.TypeOf[int](), 1)

	const total = 50
	go func() {
		for i := 0; i < total; i++ {
			_ = w.Send(ctx, i)
		}
		w.Close()
	}()

	subs := pipe.Branch(ctx, upstream, 2, pipe.BranchOptions{Capacity: 4, LowWaterMark: 2})

	var fastCount atomic.Int64
	fastDone := make(chan []int, 1)
	go func() {
		var got []int
		for {
			v, ok, _ := pipe.Next[int](ctx, subs[0])
			if !ok {
				break
			}
			got = append(got, v)
			fastCount.Add(1)
		}
		fastDone <- got
	}()

	slowDone := make(chan []int, 1)
	maxLead := make(chan int64, 1)
	go func() {
		var got []int
		var lead int64
		for {
			v, ok, _ := pipe.Next[int](ctx, subs[1])
			if !ok {
				break
			}
			got = append(got, v)
			if d := fastCount.Load() - int64(len(got)); d > lead {
				lead = d
			}
			time.Sleep(time.Millisecond)
		}
		maxLead <- lead
		slowDone <- got
	}()

	fast := <-fastDone
	slow := <-slowDone
	require.Len(t, fast, total)
	require.Len(t, slow, total)
	require.Equal(t, fast, slow)
	require.LessOrEqual(t, <-maxLead, int64(4), "fast subscriber ran more than Capacity items ahead")
}
