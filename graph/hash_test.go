package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/graph"
	"github.com/flowlinego/flowline/node"
)

func buildSimple(t *testing.T, sourceFirst bool) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	var out []int
	if sourceFirst {
		graph.AddSource[int](b, "src", intSource(1), node.SourceOptions{})
		graph.AddTransform[int, int](b, "double", doubleTransform(), nil)
		graph.AddSink[int](b, "sink", collectSink(&out))
	} else {
		graph.AddSink[int](b, "sink", collectSink(&out))
		graph.AddTransform[int, int](b, "double", doubleTransform(), nil)
		graph.AddSource[int](b, "src", intSource(1), node.SourceOptions{})
	}
	b.Connect("double", "sink")
	b.Connect("src", "double")

	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestStructuralHashIsInsertionOrderIndependent(t *testing.T) {
	g1 := buildSimple(t, true)
	g2 := buildSimple(t, false)
	require.Equal(t, g1.Hash(), g2.Hash())
}

func TestStructuralHashDiffersForDifferentGraphs(t *testing.T) {
	b := graph.NewBuilder()
	graph.AddTransform[int, int](b, "a", doubleTransform(), nil)
	graph.AddTransform[int, int](b, "b", doubleTransform(), nil)
	b.Connect("a", "b")
	g1, err := b.Build()
	require.NoError(t, err)

	b2 := graph.NewBuilder()
	graph.AddTransform[int, int](b2, "a", doubleTransform(), nil)
	graph.AddTransform[int, int](b2, "c", doubleTransform(), nil)
	b2.Connect("a", "c")
	g2, err := b2.Build()
	require.NoError(t, err)

	require.NotEqual(t, g1.Hash(), g2.Hash())
}
