package weave

import (
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
)

// Reconcile turns the workspace graph into target by dispatching the difference:
// removals first, then additions, then moves. Operators whose type or properties
// changed are deleted and re-added, which drops and re-creates their links.
// positions places new operators and moves existing ones; missing entries leave an
// element where it is.
//
// target is checked against a scratch graph first, so an inconsistent target leaves
// the workspace untouched. Dangling diagram edges are kept.
func (w *Workspace) Reconcile(target domain.GraphSnapshot, positions map[string]domain.Point) (domain.GraphDiff, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.precheck(target); err != nil {
		return domain.GraphDiff{}, err
	}

	current := domain.GraphSnapshot{Operators: w.store.GetOperators(), Links: w.store.GetLinks()}
	diff := domain.Diff(current, target)

	at := make(map[string]domain.Point, len(diff.AddedOperators)+len(diff.ChangedOperators))
	for _, op := range diff.ChangedOperators {
		if el, ok := w.diagram.Element(op.OperatorID); ok {
			at[op.OperatorID] = el.Position
		}
	}
	for id, p := range positions {
		at[id] = p
	}

	for _, l := range diff.RemovedLinks {
		if !w.store.HasLink(l.Source, l.Target) {
			continue
		}
		if err := w.dispatch.DeleteLink(l); err != nil {
			return diff, err
		}
	}
	for _, ops := range [][]domain.OperatorPredicate{diff.RemovedOperators, diff.ChangedOperators} {
		for _, op := range ops {
			if err := w.dispatch.DeleteOperator(op.OperatorID); err != nil {
				return diff, err
			}
		}
	}
	for _, ops := range [][]domain.OperatorPredicate{diff.AddedOperators, diff.ChangedOperators} {
		for _, op := range ops {
			if err := w.dispatch.AddOperator(op, at[op.OperatorID]); err != nil {
				return diff, err
			}
		}
	}
	// Links dropped with a changed operator are not in diff.AddedLinks.
	for _, l := range target.Links {
		if w.store.HasLink(l.Source, l.Target) {
			continue
		}
		if err := w.dispatch.AddLink(l); err != nil {
			return diff, err
		}
	}
	for id, p := range positions {
		el, ok := w.diagram.Element(id)
		if !ok || el.Position == p {
			continue
		}
		if err := w.diagram.Move(id, p); err != nil {
			return diff, err
		}
	}

	if !diff.IsEmpty() {
		w.logger.Info("workspace reconciled",
			"added", len(diff.AddedOperators), "removed", len(diff.RemovedOperators),
			"changed", len(diff.ChangedOperators), "links_added", len(diff.AddedLinks),
			"links_removed", len(diff.RemovedLinks))
	}
	return diff, nil
}

func (w *Workspace) precheck(g domain.GraphSnapshot) error {
	scratch := graph.NewStore()
	for _, op := range g.Operators {
		if err := domain.ValidateOperator(op); err != nil {
			return err
		}
		if w.catalog != nil {
			if err := w.catalog.CheckOperator(op); err != nil {
				return err
			}
		}
		if err := scratch.AddOperator(op); err != nil {
			return err
		}
	}
	for _, l := range g.Links {
		if err := domain.ValidateLink(l); err != nil {
			return err
		}
		if err := scratch.AddLink(l); err != nil {
			return err
		}
		if w.catalog != nil {
			source, _ := scratch.GetOperator(l.Source.OperatorID)
			target, _ := scratch.GetOperator(l.Target.OperatorID)
			if err := w.catalog.CheckPorts(l.Source, source.OperatorType, l.Target, target.OperatorType); err != nil {
				return err
			}
		}
	}
	return nil
}
