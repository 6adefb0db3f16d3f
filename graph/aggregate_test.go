package graph_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/errs"
	"github.com/flowlinego/flowline/graph"
	"github.com/flowlinego/flowline/node"
	"github.com/flowlinego/flowline/pipe"
	"github.com/flowlinego/flowline/runner"
	"github.com/flowlinego/flowline/window"
)

type countAgg struct{}

func (countAgg) GetKey(item int) string          { return "all" }
func (countAgg) CreateAccumulator() int          { return 0 }
func (countAgg) Accumulate(acc int, item int) int { return acc + 1 }
func (countAgg) Emit(w window.Window, key string, acc int) (any, error) { return acc, nil }

func collectAnySink(out *[]any) node.Sink[any] {
	return node.SinkFunc[any](func(ctx context.Context, in *pipe.Pipe) error {
		for {
			v, ok, err := in.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			*out = append(*out, v)
		}
	})
}

func TestAggregateUsesConfiguredExtractorFallback(t *testing.T) {
	b := graph.NewBuilder()
	graph.AddSource[int](b, "src", intSource(1, 2, 3), node.SourceOptions{})
	extractor := func(item int) (time.Time, bool) {
		return time.Unix(int64(item), 0), true
	}
	graph.AddAggregate[int, string, int](b, "count", countAgg{}, window.Tumbling{Size: 100 * time.Second}, 0, extractor)

	var out []any
	graph.AddSink[any](b, "sink", collectAnySink(&out))
	b.Connect("src", "count").Connect("count", "sink")

	g, err := b.Build()
	require.NoError(t, err)

	result := runner.New().Run(context.Background(), g)
	require.True(t, result.Success)
	require.Equal(t, []any{3}, out)
}

func TestAggregateFailsOnMissingTimestamp(t *testing.T) {
	b := graph.NewBuilder()
	graph.AddSource[int](b, "src", intSource(1), node.SourceOptions{})
	graph.AddAggregate[int, string, int](b, "count", countAgg{}, window.Tumbling{Size: 100 * time.Second}, 0, nil)

	var out []any
	graph.AddSink[any](b, "sink", collectAnySink(&out))
	b.Connect("src", "count").Connect("count", "sink")

	g, err := b.Build()
	require.NoError(t, err)

	result := runner.New().Run(context.Background(), g)
	require.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	var tsErr *errs.MissingTimestampError
	require.True(t, errors.As(result.Errors[0], &tsErr))
	require.Equal(t, "count", tsErr.NodeID)
}
