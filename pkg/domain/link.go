package domain

import "fmt"

// OperatorLink is a directed edge between a source port and a target port.
// At most one link may exist for a given (Source, Target) pair.
type OperatorLink struct {
	LinkID string       `json:"linkID" yaml:"link_id"`
	Source OperatorPort `json:"source" yaml:"source"`
	Target OperatorPort `json:"target" yaml:"target"`
}

// Touches reports whether either end of the link is attached to the operator.
func (l OperatorLink) Touches(operatorID string) bool {
	return l.Source.OperatorID == operatorID || l.Target.OperatorID == operatorID
}

// SameEndpoints reports whether both links connect the same pair of ports.
func (l OperatorLink) SameEndpoints(other OperatorLink) bool {
	return l.Source == other.Source && l.Target == other.Target
}

func (l OperatorLink) String() string {
	return fmt.Sprintf("%s(%s -> %s)", l.LinkID, l.Source, l.Target)
}
