// Package dispatch is the single sanctioned entry point for programmatic graph mutations.
//
// A Service validates each request against the current state of the logical graph and,
// when it is acceptable, broadcasts the corresponding action. It never mutates the graph
// itself: whoever subscribes to the actions (normally the synchronizer) applies them.
//
//	svc := dispatch.New(store.Reader())
//	svc.OnAddOperator(func(a domain.AddOperatorAction) error { ... })
//	err := svc.AddOperator(op, domain.Point{X: 10, Y: 10})
package dispatch
