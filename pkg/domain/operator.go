package domain

import (
	"fmt"
	"maps"
	"strings"
)

// Point is a placement hint for rendering. It is not part of the graph invariants.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// OperatorPort identifies an attachment point on an operator.
// It is comparable and can be used as a map key.
type OperatorPort struct {
	OperatorID string `json:"operatorID" yaml:"operator_id"`
	PortID     string `json:"portID" yaml:"port_id"`
}

// String renders the port as "operator.port".
func (p OperatorPort) String() string {
	return p.OperatorID + "." + p.PortID
}

// OperatorPredicate represents an operator node in the logical graph.
type OperatorPredicate struct {
	OperatorID   string         `json:"operatorID" yaml:"operator_id"`
	OperatorType string         `json:"operatorType" yaml:"operator_type"`
	Properties   map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Clone returns a copy whose Properties map is not shared with the receiver.
// Nested values inside Properties are still shared.
func (p OperatorPredicate) Clone() OperatorPredicate {
	c := p
	if p.Properties != nil {
		c.Properties = maps.Clone(p.Properties)
	}
	return c
}

// ParsePort parses the "operatorID.portID" form produced by OperatorPort.String.
// The port ID is whatever follows the last dot.
func ParsePort(s string) (OperatorPort, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return OperatorPort{}, fmt.Errorf("port %q is not of the form operator.port: %w", s, ErrInvalidLink)
	}
	return OperatorPort{OperatorID: s[:i], PortID: s[i+1:]}, nil
}
