package domain

import "fmt"

// ValidateOperator checks the shape of a predicate, independent of any graph.
func ValidateOperator(p OperatorPredicate) error {
	if p.OperatorID == "" {
		return fmt.Errorf("%w: empty operator id", ErrInvalidOperator)
	}
	if p.OperatorType == "" {
		return fmt.Errorf("%w: operator %q has no type", ErrInvalidOperator, p.OperatorID)
	}
	return nil
}

// ValidateLink checks the shape of a link, independent of any graph.
func ValidateLink(l OperatorLink) error {
	if l.LinkID == "" {
		return fmt.Errorf("%w: empty link id", ErrInvalidLink)
	}
	for _, p := range []OperatorPort{l.Source, l.Target} {
		if p.OperatorID == "" || p.PortID == "" {
			return fmt.Errorf("%w: link %q has an incomplete port %q", ErrInvalidLink, l.LinkID, p)
		}
	}
	return nil
}
