package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/errs"
	"github.com/flowlinego/flowline/graph"
	"github.com/flowlinego/flowline/node"
	"github.com/flowlinego/flowline/pipe"
)

func intSource(values ...int) node.Source[int] {
	return node.SourceFunc[int](func(ctx context.Context) (*pipe.Pipe, error) {
		p, w := pipe.New("ints", pipe.TypeOf[int](), len(values))
		go func() {
			for _, v := range values {
				_ = w.Send(ctx, v)
			}
			w.Close()
		}()
		return p, nil
	})
}

func doubleTransform() node.Transform[int, int] {
	return node.TransformFunc[int, int](func(ctx context.Context, item int) ([]int, error) {
		return []int{item * 2}, nil
	})
}

func collectSink(out *[]int) node.Sink[int] {
	return node.SinkFunc[int](func(ctx context.Context, in *pipe.Pipe) error {
		for {
			v, ok, err := pipe.Next[int](ctx, in)
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

func TestBuildLinearGraphSucceeds(t *testing.T) {
	b := graph.NewBuilder()
	graph.AddSource[int](b, "src", intSource(1, 2, 3), node.SourceOptions{})
	graph.AddTransform[int, int](b, "double", doubleTransform(), nil)
	var out []int
	graph.AddSink[int](b, "sink", collectSink(&out))
	b.Connect("src", "double").Connect("double", "sink")

	g, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, []string{"src", "double", "sink"}, g.TopologicalOrder())
}

func TestBuildRejectsUnknownEndpoint(t *testing.T) {
	b := graph.NewBuilder()
	graph.AddSource[int](b, "src", intSource(1), node.SourceOptions{})
	b.Connect("src", "missing")

	_, err := b.Build()
	require.Error(t, err)
	var verr *errs.GraphValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, errs.UnknownEndpoint, verr.Kind)
}

func TestBuildRejectsCycle(t *testing.T) {
	b := graph.NewBuilder()
	graph.AddTransform[int, int](b, "a", doubleTransform(), nil)
	graph.AddTransform[int, int](b, "b", doubleTransform(), nil)
	b.Connect("a", "b").Connect("b", "a")

	_, err := b.Build()
	require.Error(t, err)
	var verr *errs.GraphValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, errs.Cycle, verr.Kind)
	require.ElementsMatch(t, []string{"a", "b"}, verr.Vertices)
}

func TestBuildRejectsSourceWithInboundEdge(t *testing.T) {
	b := graph.NewBuilder()
	graph.AddSource[int](b, "src", intSource(1), node.SourceOptions{})
	graph.AddTransform[int, int](b, "t", doubleTransform(), nil)
	b.Connect("t", "src")

	_, err := b.Build()
	require.Error(t, err)
	var verr *errs.GraphValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, errs.SourceHasInbound, verr.Kind)
}

func TestBuildRejectsSinkWithOutboundEdge(t *testing.T) {
	b := graph.NewBuilder()
	var out []int
	graph.AddSink[int](b, "sink", collectSink(&out))
	graph.AddTransform[int, int](b, "t", doubleTransform(), nil)
	b.Connect("sink", "t")

	_, err := b.Build()
	require.Error(t, err)
	var verr *errs.GraphValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, errs.SinkHasOutbound, verr.Kind)
}

func TestBuildRejectsDuplicateNodeID(t *testing.T) {
	b := graph.NewBuilder()
	graph.AddSource[int](b, "src", intSource(1), node.SourceOptions{})
	graph.AddTransform[int, int](b, "src", doubleTransform(), nil)

	_, err := b.Build()
	require.Error(t, err)
	var verr *errs.GraphValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, errs.DuplicateNodeID, verr.Kind)
	require.Equal(t, "src", verr.NodeID)
}

func TestBuildRejectsTypeMismatch(t *testing.T) {
	b := graph.NewBuilder()
	graph.AddSource[int](b, "src", intSource(1), node.SourceOptions{})
	graph.AddTransform[string, string](b, "upper", node.TransformFunc[string, string](func(ctx context.Context, s string) ([]string, error) {
		return []string{s}, nil
	}), nil)
	b.Connect("src", "upper")

	_, err := b.Build()
	require.Error(t, err)
	var verr *errs.GraphValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, errs.TypeMismatch, verr.Kind)
}
