package diagram

import (
	"fmt"

	"github.com/aretw0/weave/pkg/domain"
)

// Connect draws a new edge between two ends, as a drag from a port would.
// Either end may be dangling. The edge receives a generated ID.
func (d *Diagram) Connect(source, target End) (Edge, error) {
	edge := Edge{ID: d.newID(), Source: source, Target: target}
	if err := d.checkFreeID(edge.ID); err != nil {
		return Edge{}, err
	}
	if err := d.checkEnds(edge); err != nil {
		return Edge{}, err
	}
	if err := d.insertEdge(edge); err != nil {
		return Edge{}, err
	}
	return edge, nil
}

// Repoint moves one end of an edge to another port or to a free point.
// The edge is re-keyed under a generated ID; subscribers receive both versions.
// If a subscriber rejects the change, the edge is restored silently.
func (d *Diagram) Repoint(edgeID string, side Side, to End) (Edge, error) {
	prev, ok := d.edges[edgeID]
	if !ok {
		return Edge{}, fmt.Errorf("edge %q: %w", edgeID, domain.ErrNotFound)
	}

	cur := prev
	cur.ID = d.newID()
	switch side {
	case SideSource:
		cur.Source = to
	case SideTarget:
		cur.Target = to
	default:
		return Edge{}, fmt.Errorf("unknown edge side %q", side)
	}
	if err := d.checkFreeID(cur.ID); err != nil {
		return Edge{}, err
	}
	if err := d.checkEnds(cur); err != nil {
		return Edge{}, err
	}

	delete(d.edges, prev.ID)
	d.edges[cur.ID] = cur
	d.logger.Debug("diagram: edge re-pointed", "previous_id", prev.ID, "edge_id", cur.ID, "side", side)

	if err := d.endpointChanged.Publish(EndpointChange{Previous: prev, Current: cur}); err != nil {
		delete(d.edges, cur.ID)
		d.edges[prev.ID] = prev
		d.logger.Debug("diagram: re-point rolled back", "edge_id", prev.ID, "err", err)
		return Edge{}, err
	}
	return cur, nil
}

// checkFreeID rejects a generated ID already owned by an edge.
func (d *Diagram) checkFreeID(id string) error {
	if _, ok := d.edges[id]; ok {
		return fmt.Errorf("generated edge id %q: %w", id, domain.ErrDuplicateID)
	}
	return nil
}

// Remove deletes a cell by ID, as the delete gesture on a selected cell would.
// Removing an element also removes the edges attached to it.
func (d *Diagram) Remove(cellID string) error {
	if _, ok := d.elements[cellID]; ok {
		return d.removeElement(cellID)
	}
	if e, ok := d.edges[cellID]; ok {
		delete(d.edges, cellID)
		d.logger.Debug("diagram: edge removed", "edge_id", cellID)
		return d.edgeRemoved.Publish(e)
	}
	return fmt.Errorf("cell %q: %w", cellID, domain.ErrNotFound)
}

// Move changes the position of an element. It has no logical meaning.
func (d *Diagram) Move(operatorID string, to domain.Point) error {
	el, ok := d.elements[operatorID]
	if !ok {
		return fmt.Errorf("element %q: %w", operatorID, domain.ErrNotFound)
	}
	el.Position = to
	d.elements[operatorID] = el
	return nil
}
