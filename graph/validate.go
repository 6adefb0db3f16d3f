package graph

import (
	"sort"

	"github.com/flowlinego/flowline/errs"
)

// validate runs the fixed sequence of structural checks from §4.1: duplicate
// ids (enforced at insertion, see builder.add), unknown endpoints, cycles,
// source/sink edge direction, and finally type compatibility across edges.
// The first violation found is returned; callers that want every violation
// should fix one at a time, the same order a human reading the builder calls
// top to bottom would hit them.
func validate(nodes map[string]*NodeDefinition, order []string, edges []Edge) error {
	if err := validateEndpoints(nodes, edges); err != nil {
		return err
	}
	if err := validateAcyclic(nodes, order, edges); err != nil {
		return err
	}
	if err := validateEdgeDirection(nodes, edges); err != nil {
		return err
	}
	if err := validateTypes(nodes, edges); err != nil {
		return err
	}
	return nil
}

func validateEndpoints(nodes map[string]*NodeDefinition, edges []Edge) error {
	for _, e := range edges {
		if _, ok := nodes[e.From]; !ok {
			return &errs.GraphValidationError{Kind: errs.UnknownEndpoint, EdgeFrom: e.From, EdgeTo: e.To}
		}
		if _, ok := nodes[e.To]; !ok {
			return &errs.GraphValidationError{Kind: errs.UnknownEndpoint, EdgeFrom: e.From, EdgeTo: e.To}
		}
	}
	return nil
}

func validateAcyclic(nodes map[string]*NodeDefinition, order []string, edges []Edge) error {
	adjacency := make(map[string][]string, len(nodes))
	for _, e := range edges {
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(nodes))
	stack := make([]string, 0, len(nodes))

	var cycle []string
	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = visiting
		stack = append(stack, id)
		for _, next := range adjacency[id] {
			switch state[next] {
			case unvisited:
				if visit(next) {
					return true
				}
			case visiting:
				// Found a back edge; extract the cycle from the stack.
				start := 0
				for i, v := range stack {
					if v == next {
						start = i
						break
					}
				}
				cycle = append([]string{}, stack[start:]...)
				return true
			}
		}
		state[id] = done
		stack = stack[:len(stack)-1]
		return false
	}

	for _, id := range order {
		if state[id] == unvisited {
			if visit(id) {
				sort.Strings(cycle)
				return &errs.GraphValidationError{Kind: errs.Cycle, Vertices: cycle}
			}
		}
	}
	return nil
}

func validateEdgeDirection(nodes map[string]*NodeDefinition, edges []Edge) error {
	inbound := make(map[string]bool, len(nodes))
	outbound := make(map[string]bool, len(nodes))
	for _, e := range edges {
		outbound[e.From] = true
		inbound[e.To] = true
	}
	for id, def := range nodes {
		if def.Kind == Source && inbound[id] {
			return &errs.GraphValidationError{Kind: errs.SourceHasInbound, NodeID: id}
		}
		if def.Kind == Sink && outbound[id] {
			return &errs.GraphValidationError{Kind: errs.SinkHasOutbound, NodeID: id}
		}
	}
	return nil
}

func validateTypes(nodes map[string]*NodeDefinition, edges []Edge) error {
	for _, e := range edges {
		from := nodes[e.From]
		to := nodes[e.To]
		if from.OutputType == nil || to.InputType == nil {
			// Aggregate outputs (any) and join inputs are validated at
			// runtime via a type assertion instead of at build time.
			continue
		}
		if !from.OutputType.AssignableTo(to.InputType) {
			return &errs.GraphValidationError{
				Kind:     errs.TypeMismatch,
				EdgeFrom: e.From,
				EdgeTo:   e.To,
				Detail:   from.OutputType.String() + " not assignable to " + to.InputType.String(),
			}
		}
	}
	return nil
}
