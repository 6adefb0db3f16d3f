package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/graph"
)

func TestPlanCacheReusesCompiledPlanForSameShape(t *testing.T) {
	cache := graph.NewPlanCache(2)

	g1 := buildSimple(t, true)
	p1 := cache.GetOrCompile("runner.v1", g1)
	require.Equal(t, 1, cache.Len())

	g2 := buildSimple(t, false) // same structural shape, different insertion order
	p2 := cache.GetOrCompile("runner.v1", g2)

	require.Same(t, p1, p2)
	require.Equal(t, 1, cache.Len())
}

func TestPlanCacheEvictsWhenFull(t *testing.T) {
	cache := graph.NewPlanCache(1)

	b1 := graph.NewBuilder()
	graph.AddTransform[int, int](b1, "a", doubleTransform(), nil)
	g1, err := b1.Build()
	require.NoError(t, err)
	cache.GetOrCompile("runner.v1", g1)

	b2 := graph.NewBuilder()
	graph.AddTransform[int, int](b2, "z", doubleTransform(), nil)
	g2, err := b2.Build()
	require.NoError(t, err)
	cache.GetOrCompile("runner.v1", g2)

	require.Equal(t, 1, cache.Len())
}

func TestPlanCacheDistinguishesDefinitionType(t *testing.T) {
	cache := graph.NewPlanCache(10)
	g := buildSimple(t, true)

	p1 := cache.GetOrCompile("runner.v1", g)
	p2 := cache.GetOrCompile("runner.v2", g)
	require.NotSame(t, p1, p2)
	require.Equal(t, 2, cache.Len())
}

func TestCompileTopologicalOrderIsDeterministic(t *testing.T) {
	g := buildSimple(t, true)
	plan := graph.Compile(g)
	require.Equal(t, []string{"src", "double", "sink"}, plan.Order)
}
