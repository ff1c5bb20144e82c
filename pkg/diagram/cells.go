package diagram

import (
	"fmt"

	"github.com/aretw0/weave/pkg/domain"
)

// Side selects one end of an edge.
type Side string

const (
	SideSource Side = "source"
	SideTarget Side = "target"
)

// Element is the visual cell of one operator.
type Element struct {
	ID           string       `json:"id"`
	OperatorType string       `json:"operatorType"`
	Position     domain.Point `json:"position"`
}

// End is one end of an edge. It is attached when Port names an operator port,
// otherwise it dangles at Point.
type End struct {
	Port  domain.OperatorPort `json:"port"`
	Point domain.Point        `json:"point"`
}

// AttachedTo returns an end attached to port.
func AttachedTo(port domain.OperatorPort) End {
	return End{Port: port}
}

// DanglingAt returns an end left at a free point.
func DanglingAt(pt domain.Point) End {
	return End{Point: pt}
}

// Attached reports whether the end resolves to a port.
func (e End) Attached() bool {
	return e.Port.OperatorID != "" && e.Port.PortID != ""
}

// Edge is the visual cell of one link.
type Edge struct {
	ID     string `json:"id"`
	Source End    `json:"source"`
	Target End    `json:"target"`
}

// End returns the end on the given side.
func (e Edge) End(side Side) End {
	if side == SideSource {
		return e.Source
	}
	return e.Target
}

// Touches reports whether either end is attached to the operator.
func (e Edge) Touches(operatorID string) bool {
	return (e.Source.Attached() && e.Source.Port.OperatorID == operatorID) ||
		(e.Target.Attached() && e.Target.Port.OperatorID == operatorID)
}

// EndpointChange describes an edge before and after one of its ends was re-pointed.
// The edge carries a new ID after the change.
type EndpointChange struct {
	Previous Edge `json:"previous"`
	Current  Edge `json:"current"`
}

// IsValid reports whether the edge is eligible for the logical graph:
// both of its ends are attached to a port.
func IsValid(e Edge) bool {
	return e.Source.Attached() && e.Target.Attached()
}

// ToOperatorLink translates a valid edge into a link with the edge's ID.
// Callers filter with IsValid first; a dangling edge fails with domain.ErrInvalidEdge.
func ToOperatorLink(e Edge) (domain.OperatorLink, error) {
	if !IsValid(e) {
		return domain.OperatorLink{}, fmt.Errorf("edge %q is dangling: %w", e.ID, domain.ErrInvalidEdge)
	}
	return domain.OperatorLink{
		LinkID: e.ID,
		Source: e.Source.Port,
		Target: e.Target.Port,
	}, nil
}

// fromLink builds the edge rendering a link.
func fromLink(l domain.OperatorLink) Edge {
	return Edge{ID: l.LinkID, Source: AttachedTo(l.Source), Target: AttachedTo(l.Target)}
}
