package graph

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// structuralHash computes an insertion-order-independent fingerprint of a
// graph's shape: node ids, kinds and element types, plus the edge set. Two
// builders that add the same nodes and edges in different order produce the
// same hash, which is what lets the runner's plan cache key on (definition
// type, graph hash) instead of on builder call order.
func structuralHash(nodes map[string]*NodeDefinition, edges []Edge) uint64 {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		def := nodes[id]
		b.WriteString(id)
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(int(def.Kind)))
		b.WriteByte('|')
		if def.InputType != nil {
			b.WriteString(def.InputType.String())
		}
		b.WriteByte('|')
		if def.OutputType != nil {
			b.WriteString(def.OutputType.String())
		}
		b.WriteByte('\n')
	}

	sortedEdges := append([]Edge(nil), edges...)
	sort.Slice(sortedEdges, func(i, j int) bool {
		a, c := sortedEdges[i], sortedEdges[j]
		if a.From != c.From {
			return a.From < c.From
		}
		if a.To != c.To {
			return a.To < c.To
		}
		if a.FromPort != c.FromPort {
			return a.FromPort < c.FromPort
		}
		return a.ToPort < c.ToPort
	})
	for _, e := range sortedEdges {
		b.WriteString(e.From)
		b.WriteByte(':')
		b.WriteString(e.FromPort)
		b.WriteByte('>')
		b.WriteString(e.To)
		b.WriteByte(':')
		b.WriteString(e.ToPort)
		b.WriteByte('\n')
	}

	return xxhash.Sum64String(b.String())
}
