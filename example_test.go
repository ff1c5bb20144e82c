package weave_test

import (
	"fmt"
	"log"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/pkg/diagram"
	"github.com/aretw0/weave/pkg/domain"
)

// ExampleWorkspace_Repoint shows a link re-pointed on the diagram surfacing as a single replacement.
func ExampleWorkspace_Repoint() {
	ids := []string{"l2", "l3"}
	ws := weave.New(weave.WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))
	defer ws.Close()

	ws.Subscribe(func(n domain.Notification) {
		switch {
		case n.Operator != nil:
			fmt.Println(n.Type, n.Operator.OperatorID)
		case n.Previous != nil:
			fmt.Println(n.Type, n.Previous.LinkID, "->", n.Link.LinkID)
		default:
			fmt.Println(n.Type, n.Link)
		}
	})

	for _, id := range []string{"scan", "filter", "sink"} {
		if err := ws.AddOperator(domain.OperatorPredicate{OperatorID: id, OperatorType: id}, domain.Point{}); err != nil {
			log.Fatal(err)
		}
	}
	err := ws.AddLink(domain.OperatorLink{
		LinkID: "l1",
		Source: domain.OperatorPort{OperatorID: "scan", PortID: "out0"},
		Target: domain.OperatorPort{OperatorID: "filter", PortID: "in0"},
	})
	if err != nil {
		log.Fatal(err)
	}

	// The user drags the target end of l1 from filter to sink.
	if _, err := ws.Repoint("l1", diagram.SideTarget, diagram.AttachedTo(domain.OperatorPort{OperatorID: "sink", PortID: "in0"})); err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(ws.Graph().Links), "link")

	// Output:
	// operator_added scan
	// operator_added filter
	// operator_added sink
	// link_added l1(scan.out0 -> filter.in0)
	// link_replaced l1 -> l2
	// link_added l2(scan.out0 -> sink.in0)
	// 1 link
}
