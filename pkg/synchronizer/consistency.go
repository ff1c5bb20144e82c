package synchronizer

import (
	"errors"
	"fmt"

	"github.com/aretw0/weave/pkg/diagram"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/ports"
)

// ErrDiverged reports that the logical graph and the diagram disagree.
var ErrDiverged = errors.New("graph and diagram diverged")

// View is the query side of a diagram.
type View interface {
	Elements() []diagram.Element
	Edges() []diagram.Edge
}

// Verify checks that the logical graph and the diagram agree: element IDs match
// operator IDs, valid edges match links pair for pair, and every link endpoint
// references an existing operator. Dangling edges are ignored.
func Verify(graph ports.GraphReader, view View) error {
	var errs []error

	elements := make(map[string]bool)
	for _, el := range view.Elements() {
		elements[el.ID] = true
		if !graph.HasOperator(el.ID) {
			errs = append(errs, fmt.Errorf("element %q has no operator: %w", el.ID, ErrDiverged))
		}
	}
	for _, op := range graph.GetOperators() {
		if !elements[op.OperatorID] {
			errs = append(errs, fmt.Errorf("operator %q has no element: %w", op.OperatorID, ErrDiverged))
		}
	}

	type pair struct{ source, target domain.OperatorPort }
	edges := make(map[pair]bool)
	for _, e := range view.Edges() {
		if !diagram.IsValid(e) {
			continue
		}
		p := pair{e.Source.Port, e.Target.Port}
		if edges[p] {
			errs = append(errs, fmt.Errorf("edges share %s -> %s: %w", p.source, p.target, ErrDiverged))
		}
		edges[p] = true
		if !graph.HasLink(p.source, p.target) {
			errs = append(errs, fmt.Errorf("edge %q has no link: %w", e.ID, ErrDiverged))
		}
	}
	for _, l := range graph.GetLinks() {
		if !edges[pair{l.Source, l.Target}] {
			errs = append(errs, fmt.Errorf("link %s has no edge: %w", l, ErrDiverged))
		}
		if !graph.HasOperator(l.Source.OperatorID) || !graph.HasOperator(l.Target.OperatorID) {
			errs = append(errs, fmt.Errorf("link %s has a dangling endpoint: %w", l, ErrDiverged))
		}
	}
	return errors.Join(errs...)
}
