package diag_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/diag"
)

func sample() ([]diag.Node, []diag.Edge) {
	nodes := []diag.Node{
		{ID: "src", Label: "src : source"},
		{ID: "t", Label: "t : transform"},
		{ID: "sink", Label: "sink : sink"},
	}
	edges := []diag.Edge{
		{From: "src", To: "t"},
		{From: "t", To: "sink", Label: "ok"},
	}
	return nodes, edges
}

func TestMermaidContainsEveryNodeAndEdgeOnce(t *testing.T) {
	nodes, edges := sample()
	out := diag.Mermaid(nodes, edges)
	for _, n := range nodes {
		require.Equal(t, 1, strings.Count(out, n.Label))
	}
	require.Contains(t, out, "src --> t")
	require.Contains(t, out, "t -->|ok| sink")
}

func TestDOTContainsEveryNodeAndEdgeOnce(t *testing.T) {
	nodes, edges := sample()
	out := diag.DOT(nodes, edges)
	require.True(t, strings.HasPrefix(out, "digraph flowline {"))
	for _, n := range nodes {
		require.Contains(t, out, n.ID)
	}
	require.Contains(t, out, `"src" -> "t"`)
	require.Contains(t, out, `"t" -> "sink" [label="ok"]`)
}

func TestASCIIStartsFromRoots(t *testing.T) {
	nodes, edges := sample()
	out := diag.ASCII(nodes, edges)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "src : source", lines[0])
}

func TestIdentifierEscaping(t *testing.T) {
	nodes := []diag.Node{{ID: "a-b:c", Label: "a-b:c : source"}}
	out := diag.Mermaid(nodes, nil)
	require.Contains(t, out, "a_b_c")
	require.NotContains(t, out, "a-b:c[")
}
