package graph

import "github.com/flowlinego/flowline/diag"

// DiagView converts this Graph into the node/edge shape diag's exporters
// consume (invariant 8: every node and edge appears exactly once).
func (g *Graph) DiagView() ([]diag.Node, []diag.Edge) {
	ids := g.NodeIDs()
	nodes := make([]diag.Node, 0, len(ids))
	for _, id := range ids {
		def := g.nodes[id]
		nodes = append(nodes, diag.Node{ID: id, Label: id + " : " + def.Kind.String()})
	}
	edges := make([]diag.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, diag.Edge{From: e.From, To: e.To, Label: edgeLabel(e)})
	}
	return nodes, edges
}

// edgeLabel applies the §6 labeling rule: sourcePort -> targetPort if both
// are set, otherwise whichever one is, otherwise unlabeled.
func edgeLabel(e Edge) string {
	switch {
	case e.FromPort != "" && e.ToPort != "":
		return e.FromPort + " -> " + e.ToPort
	case e.FromPort != "":
		return e.FromPort
	case e.ToPort != "":
		return e.ToPort
	default:
		return ""
	}
}
