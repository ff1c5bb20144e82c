package graph

import (
	"fmt"
	"slices"

	"github.com/aretw0/weave/pkg/ports"
)

// IssueKind classifies a structural finding.
type IssueKind string

const (
	// IssueDisconnected marks operators not reachable (ignoring direction) from the rest of the graph.
	IssueDisconnected IssueKind = "disconnected"
	// IssueCycle marks operators that form a directed cycle.
	IssueCycle IssueKind = "cycle"
)

// Issue is an advisory finding about the shape of the graph.
type Issue struct {
	Kind      IssueKind `json:"kind"`
	Operators []string  `json:"operators"`
	Message   string    `json:"message"`
}

// Check inspects the graph and reports structural issues that would keep it from being a
// single connected DAG. It never blocks a mutation: cycles are accepted by the store.
func Check(r ports.GraphReader) []Issue {
	ops := r.GetOperators()
	if len(ops) == 0 {
		return nil
	}

	ids := make([]string, 0, len(ops))
	out := make(map[string][]string, len(ops))
	undirected := make(map[string][]string, len(ops))
	for _, op := range ops {
		ids = append(ids, op.OperatorID)
	}
	for _, l := range r.GetLinks() {
		from, to := l.Source.OperatorID, l.Target.OperatorID
		out[from] = append(out[from], to)
		undirected[from] = append(undirected[from], to)
		undirected[to] = append(undirected[to], from)
	}

	var issues []Issue
	if unreached := unreachable(ids, undirected); len(unreached) > 0 {
		issues = append(issues, Issue{
			Kind:      IssueDisconnected,
			Operators: unreached,
			Message:   fmt.Sprintf("operators %v are not connected to the operator graph", unreached),
		})
	}
	for _, cycle := range cycles(ids, out) {
		issues = append(issues, Issue{
			Kind:      IssueCycle,
			Operators: cycle,
			Message:   fmt.Sprintf("operators %v form a cycle in the operator graph", cycle),
		})
	}
	return issues
}

// unreachable walks from the first operator and returns everything the walk missed.
func unreachable(ids []string, adj map[string][]string) []string {
	seen := map[string]bool{ids[0]: true}
	stack := []string{ids[0]}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, w := range adj[v] {
			if !seen[w] {
				seen[w] = true
				stack = append(stack, w)
			}
		}
	}

	var missed []string
	for _, id := range ids {
		if !seen[id] {
			missed = append(missed, id)
		}
	}
	return missed
}

// cycles returns the strongly connected components that contain a cycle (Tarjan).
func cycles(ids []string, adj map[string][]string) [][]string {
	var (
		index   = 0
		indices = make(map[string]int)
		low     = make(map[string]int)
		onStack = make(map[string]bool)
		stack   []string
		result  [][]string
	)

	var visit func(v string)
	visit = func(v string) {
		indices[v] = index
		low[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		selfLoop := false
		for _, w := range adj[v] {
			if w == v {
				selfLoop = true
			}
			if _, ok := indices[w]; !ok {
				visit(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], indices[w])
			}
		}

		if low[v] != indices[v] {
			return
		}
		var scc []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) > 1 || selfLoop {
			slices.Sort(scc)
			result = append(result, scc)
		}
	}

	for _, id := range ids {
		if _, ok := indices[id]; !ok {
			visit(id)
		}
	}
	slices.SortFunc(result, func(a, b []string) int { return slices.Compare(a, b) })
	return result
}
