package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/weave/pkg/domain"
)

// Default ports used by To.
const (
	DefaultOutput = "out0"
	DefaultInput  = "in0"
)

// Target receives the mutations recorded by a Builder.
type Target interface {
	AddOperator(op domain.OperatorPredicate, point domain.Point) error
	AddLink(link domain.OperatorLink) error
}

// Builder manages the graph construction.
type Builder struct {
	order []string
	ops   map[string]*OperatorBuilder
	links []domain.OperatorLink
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		ops: make(map[string]*OperatorBuilder),
	}
}

// Add declares an operator.
// If the operator already exists, it returns the existing builder.
func (b *Builder) Add(id string) *OperatorBuilder {
	if ob, ok := b.ops[id]; ok {
		return ob
	}
	ob := &OperatorBuilder{
		op:      domain.OperatorPredicate{OperatorID: id},
		builder: b,
	}
	b.ops[id] = ob
	b.order = append(b.order, id)
	return ob
}

// Connect declares a link between two ports in "operator.port" form.
func (b *Builder) Connect(linkID, source, target string) error {
	src, err := domain.ParsePort(source)
	if err != nil {
		return err
	}
	tgt, err := domain.ParsePort(target)
	if err != nil {
		return err
	}
	b.links = append(b.links, domain.OperatorLink{LinkID: linkID, Source: src, Target: tgt})
	return nil
}

// Operators returns the declared operators in declaration order.
func (b *Builder) Operators() []domain.OperatorPredicate {
	ops := make([]domain.OperatorPredicate, 0, len(b.order))
	for _, id := range b.order {
		ops = append(ops, b.ops[id].op.Clone())
	}
	return ops
}

// Links returns the declared links in declaration order.
func (b *Builder) Links() []domain.OperatorLink {
	return append([]domain.OperatorLink(nil), b.links...)
}

// Positions returns where each declared operator is placed.
func (b *Builder) Positions() map[string]domain.Point {
	out := make(map[string]domain.Point, len(b.ops))
	for id, ob := range b.ops {
		out[id] = ob.point
	}
	return out
}

// Snapshot returns the declared graph as a snapshot, for Workspace.Reconcile.
func (b *Builder) Snapshot() domain.GraphSnapshot {
	return domain.GraphSnapshot{Operators: b.Operators(), Links: b.Links()}
}

// Apply adds every operator and then every link to t, in declaration order.
// It stops at the first failure; what was applied before it stays applied.
func (b *Builder) Apply(t Target) error {
	for _, id := range b.order {
		ob := b.ops[id]
		if err := t.AddOperator(ob.op.Clone(), ob.point); err != nil {
			return fmt.Errorf("apply operator %q: %w", id, err)
		}
	}
	for _, l := range b.links {
		if err := t.AddLink(l); err != nil {
			return fmt.Errorf("apply link %q: %w", l.LinkID, err)
		}
	}
	return nil
}

// OperatorBuilder provides a fluent API for configuring an operator.
type OperatorBuilder struct {
	op      domain.OperatorPredicate
	point   domain.Point
	builder *Builder
}

// Type sets the operator type.
func (o *OperatorBuilder) Type(operatorType string) *OperatorBuilder {
	o.op.OperatorType = operatorType
	return o
}

// Set sets one property.
func (o *OperatorBuilder) Set(key string, value any) *OperatorBuilder {
	if o.op.Properties == nil {
		o.op.Properties = make(map[string]any)
	}
	o.op.Properties[key] = value
	return o
}

// At places the operator on the diagram.
func (o *OperatorBuilder) At(x, y float64) *OperatorBuilder {
	o.point = domain.Point{X: x, Y: y}
	return o
}

// To links the default output of this operator to the default input of target.
func (o *OperatorBuilder) To(target string) *OperatorBuilder {
	return o.Link(DefaultOutput, target, DefaultInput)
}

// Link links one output port of this operator to a port of target.
// The link ID is derived from the ports: "source.port->target.port".
func (o *OperatorBuilder) Link(output, target, input string) *OperatorBuilder {
	src := domain.OperatorPort{OperatorID: o.op.OperatorID, PortID: output}
	tgt := domain.OperatorPort{OperatorID: target, PortID: input}
	o.builder.links = append(o.builder.links, domain.OperatorLink{
		LinkID: src.String() + "->" + tgt.String(),
		Source: src,
		Target: tgt,
	})
	return o
}

// ErrUndeclared is returned by Validate when a link refers to an operator never added.
var ErrUndeclared = errors.New("operator not declared")

// Validate checks the script on its own, before any Target sees it.
func (b *Builder) Validate() error {
	var errs []error
	for _, id := range b.order {
		if err := domain.ValidateOperator(b.ops[id].op); err != nil {
			errs = append(errs, err)
		}
	}
	for _, l := range b.links {
		if err := domain.ValidateLink(l); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, p := range []domain.OperatorPort{l.Source, l.Target} {
			if _, ok := b.ops[p.OperatorID]; !ok {
				errs = append(errs, fmt.Errorf("link %q: %q: %w", l.LinkID, p.OperatorID, ErrUndeclared))
			}
		}
	}
	return errors.Join(errs...)
}
