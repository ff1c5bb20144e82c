package diagram

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/stream"
	"github.com/google/uuid"
)

// Diagram owns the cell graph and its event streams.
// It is not safe for concurrent use.
type Diagram struct {
	elements map[string]Element
	edges    map[string]Edge

	newID  func() string
	logger *slog.Logger

	elementAdded    *stream.Stream[Element]
	elementRemoved  *stream.Stream[string]
	edgeAdded       *stream.Stream[Edge]
	edgeRemoved     *stream.Stream[Edge]
	endpointChanged *stream.Stream[EndpointChange]
}

// Option configures a Diagram.
type Option func(*Diagram)

// WithIDGenerator sets the function naming edges created or re-pointed by gestures.
func WithIDGenerator(fn func() string) Option {
	return func(d *Diagram) {
		d.newID = fn
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Diagram) {
		d.logger = logger
	}
}

// New creates an empty diagram.
func New(opts ...Option) *Diagram {
	d := &Diagram{
		elements:        make(map[string]Element),
		edges:           make(map[string]Edge),
		elementAdded:    stream.New[Element]("diagram.element_added"),
		elementRemoved:  stream.New[string]("diagram.element_removed"),
		edgeAdded:       stream.New[Edge]("diagram.edge_added"),
		edgeRemoved:     stream.New[Edge]("diagram.edge_removed"),
		endpointChanged: stream.New[EndpointChange]("diagram.edge_endpoint_changed"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.newID == nil {
		d.newID = func() string { return "link-" + uuid.NewString() }
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d
}

// OnElementAdded subscribes to element additions. Renderers use it; the
// synchronizer does not, since elements are only ever added by command.
func (d *Diagram) OnElementAdded(fn func(Element) error) func() {
	return d.elementAdded.Subscribe(fn)
}

// OnElementRemoved subscribes to element removals, whatever their origin.
func (d *Diagram) OnElementRemoved(fn func(operatorID string) error) func() {
	return d.elementRemoved.Subscribe(fn)
}

// OnEdgeAdded subscribes to edge additions, dangling ones included.
func (d *Diagram) OnEdgeAdded(fn func(Edge) error) func() {
	return d.edgeAdded.Subscribe(fn)
}

// OnEdgeRemoved subscribes to edge removals, dangling ones included.
func (d *Diagram) OnEdgeRemoved(fn func(Edge) error) func() {
	return d.edgeRemoved.Subscribe(fn)
}

// OnEdgeEndpointChanged subscribes to edges whose source or target was re-pointed.
func (d *Diagram) OnEdgeEndpointChanged(fn func(EndpointChange) error) func() {
	return d.endpointChanged.Subscribe(fn)
}

// Close ends every event stream.
func (d *Diagram) Close() {
	d.elementAdded.Close()
	d.elementRemoved.Close()
	d.edgeAdded.Close()
	d.edgeRemoved.Close()
	d.endpointChanged.Close()
}

// -- Commands --

// AddElement renders an operator at point.
func (d *Diagram) AddElement(op domain.OperatorPredicate, point domain.Point) error {
	if _, ok := d.elements[op.OperatorID]; ok {
		return fmt.Errorf("element %q: %w", op.OperatorID, domain.ErrDuplicateID)
	}
	el := Element{ID: op.OperatorID, OperatorType: op.OperatorType, Position: point}
	d.elements[el.ID] = el
	d.logger.Debug("diagram: element added", "operator_id", el.ID, "x", point.X, "y", point.Y)
	return d.elementAdded.Publish(el)
}

// RemoveElement removes an operator's element together with every edge attached to it.
// A missing element is a programming error on the caller's side.
func (d *Diagram) RemoveElement(operatorID string) error {
	if _, ok := d.elements[operatorID]; !ok {
		return fmt.Errorf("element %q: %w", operatorID, domain.ErrNotFound)
	}
	return d.removeElement(operatorID)
}

// AddEdge renders a link as a fully attached edge keyed by the link ID.
func (d *Diagram) AddEdge(link domain.OperatorLink) error {
	if _, ok := d.edges[link.LinkID]; ok {
		return fmt.Errorf("edge %q: %w", link.LinkID, domain.ErrDuplicateID)
	}
	edge := fromLink(link)
	if err := d.checkEnds(edge); err != nil {
		return err
	}
	return d.insertEdge(edge)
}

// RemoveEdge removes the edge joining source to target. The lookup is by endpoint
// identity: an edge re-pointed by the user carries an ID the caller may not know.
func (d *Diagram) RemoveEdge(source, target domain.OperatorPort) error {
	edge, err := d.FindEdge(source, target)
	if err != nil {
		return err
	}
	delete(d.edges, edge.ID)
	d.logger.Debug("diagram: edge removed", "edge_id", edge.ID)
	return d.edgeRemoved.Publish(edge)
}

// -- Queries --

// Element returns the element of an operator.
func (d *Diagram) Element(operatorID string) (Element, bool) {
	el, ok := d.elements[operatorID]
	return el, ok
}

// Edge returns the edge with the ID.
func (d *Diagram) Edge(edgeID string) (Edge, bool) {
	e, ok := d.edges[edgeID]
	return e, ok
}

// Elements returns every element, sorted by ID.
func (d *Diagram) Elements() []Element {
	els := make([]Element, 0, len(d.elements))
	for _, el := range d.elements {
		els = append(els, el)
	}
	slices.SortFunc(els, func(a, b Element) int { return strings.Compare(a.ID, b.ID) })
	return els
}

// Edges returns every edge, sorted by ID.
func (d *Diagram) Edges() []Edge {
	edges := make([]Edge, 0, len(d.edges))
	for _, e := range d.edges {
		edges = append(edges, e)
	}
	sortEdges(edges)
	return edges
}

// FindEdge returns the valid edge whose ends are attached to source and target.
func (d *Diagram) FindEdge(source, target domain.OperatorPort) (Edge, error) {
	for _, e := range d.Edges() {
		if IsValid(e) && e.Source.Port == source && e.Target.Port == target {
			return e, nil
		}
	}
	return Edge{}, fmt.Errorf("edge %s -> %s: %w", source, target, domain.ErrNotFound)
}

// -- Internals --

func (d *Diagram) removeElement(operatorID string) error {
	var errs []error

	// Attached edges go first, as the rendering surface would do.
	var attached []Edge
	for _, e := range d.edges {
		if e.Touches(operatorID) {
			attached = append(attached, e)
		}
	}
	sortEdges(attached)
	for _, e := range attached {
		delete(d.edges, e.ID)
		d.logger.Debug("diagram: edge removed", "edge_id", e.ID, "cascade_from", operatorID)
		if err := d.edgeRemoved.Publish(e); err != nil {
			errs = append(errs, err)
		}
	}

	delete(d.elements, operatorID)
	d.logger.Debug("diagram: element removed", "operator_id", operatorID)
	if err := d.elementRemoved.Publish(operatorID); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// insertEdge adds the edge and rolls it back silently if a subscriber rejects it,
// so that no unmirrored edge stays on the diagram.
func (d *Diagram) insertEdge(edge Edge) error {
	d.edges[edge.ID] = edge
	d.logger.Debug("diagram: edge added", "edge_id", edge.ID, "valid", IsValid(edge))
	if err := d.edgeAdded.Publish(edge); err != nil {
		delete(d.edges, edge.ID)
		d.logger.Debug("diagram: edge addition rolled back", "edge_id", edge.ID, "err", err)
		return err
	}
	return nil
}

// checkEnds verifies that attached ends point at existing elements.
func (d *Diagram) checkEnds(e Edge) error {
	for _, end := range []End{e.Source, e.Target} {
		if !end.Attached() {
			continue
		}
		if _, ok := d.elements[end.Port.OperatorID]; !ok {
			return fmt.Errorf("edge %q end on element %q: %w", e.ID, end.Port.OperatorID, domain.ErrNotFound)
		}
	}
	return nil
}

func sortEdges(edges []Edge) {
	slices.SortFunc(edges, func(a, b Edge) int { return strings.Compare(a.ID, b.ID) })
}
