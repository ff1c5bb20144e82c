/*
Package weave keeps a dataflow graph and its visual diagram in step.

A user assembles a graph of operators and links either programmatically or by direct
manipulation of a diagram (drawing, re-pointing and deleting edges, deleting elements).
Weave holds both representations and guarantees that after every completed step they
agree: every element has an operator, every fully connected edge has a link joining the
same ports, and a link re-pointed on the diagram is replaced in one atomic step.

# Architecture

  - pkg/graph holds the canonical operators and links and enforces their invariants.
  - pkg/diagram holds the visual cells and raises events for every change.
  - pkg/dispatch validates programmatic requests and broadcasts them as actions.
  - pkg/synchronizer is the only writer of the graph; it reacts to actions and to
    diagram events and publishes domain notifications.

The Workspace type wires all four together behind a single mutex.

# Usage

	ws := weave.New(weave.WithLogger(logger))
	defer ws.Close()

	ws.Subscribe(func(n domain.Notification) {
		fmt.Println(n.Type)
	})

	_ = ws.AddOperator(domain.OperatorPredicate{OperatorID: "scan", OperatorType: "ScanSource"}, domain.Point{})
	_ = ws.AddOperator(domain.OperatorPredicate{OperatorID: "sink", OperatorType: "Sink"}, domain.Point{X: 200})
	_ = ws.AddLink(domain.OperatorLink{
		LinkID: "l1",
		Source: domain.OperatorPort{OperatorID: "scan", PortID: "out0"},
		Target: domain.OperatorPort{OperatorID: "sink", PortID: "in0"},
	})

Adapters exposing a Workspace over HTTP, MCP and Redis live under pkg/adapters.
*/
package weave
