package ports

import "github.com/aretw0/weave/pkg/domain"

// GraphReader is the read-only view of the logical graph.
// Implementations return copies; mutating a returned value never affects the graph.
type GraphReader interface {
	HasOperator(operatorID string) bool
	// GetOperator returns domain.ErrNotFound if the operator does not exist.
	GetOperator(operatorID string) (domain.OperatorPredicate, error)
	GetOperators() []domain.OperatorPredicate

	HasLinkWithID(linkID string) bool
	HasLink(source, target domain.OperatorPort) bool
	// GetLink returns domain.ErrNotFound if no link joins source to target.
	GetLink(source, target domain.OperatorPort) (domain.OperatorLink, error)
	// GetLinkWithID returns domain.ErrNotFound if the link does not exist.
	GetLinkWithID(linkID string) (domain.OperatorLink, error)
	GetLinks() []domain.OperatorLink
	// LinksOf returns every link with either end on the operator.
	LinksOf(operatorID string) []domain.OperatorLink
}

// GraphStore is the privileged, mutating view of the logical graph.
// It must only be handed to the component responsible for keeping the graph
// consistent with its diagram.
type GraphStore interface {
	GraphReader

	// AddOperator returns domain.ErrDuplicateID if the ID is taken.
	AddOperator(op domain.OperatorPredicate) error
	// DeleteOperator returns domain.ErrNotFound if absent and
	// domain.ErrDanglingReference if links still touch the operator.
	DeleteOperator(operatorID string) (domain.OperatorPredicate, error)
	// AddLink returns domain.ErrNotFound, domain.ErrDuplicateLink or domain.ErrDuplicateID.
	AddLink(link domain.OperatorLink) error
	// DeleteLink returns domain.ErrNotFound if no link joins source to target.
	DeleteLink(source, target domain.OperatorPort) (domain.OperatorLink, error)
	// DeleteLinkWithID returns domain.ErrNotFound if the link does not exist.
	DeleteLinkWithID(linkID string) (domain.OperatorLink, error)
}

// Notifier exposes the domain notifications published once a mutation has been applied.
// Each Subscribe call returns the function that cancels the subscription.
type Notifier interface {
	OnOperatorAdded(fn func(domain.OperatorPredicate) error) (unsubscribe func())
	OnOperatorDeleted(fn func(domain.OperatorPredicate) error) (unsubscribe func())
	OnLinkAdded(fn func(domain.OperatorLink) error) (unsubscribe func())
	OnLinkDeleted(fn func(domain.OperatorLink) error) (unsubscribe func())
	OnLinkReplaced(fn func(domain.LinkReplacement) error) (unsubscribe func())
}

// OperatorCatalog knows which operator types exist and which ports they expose.
type OperatorCatalog interface {
	// CheckOperator returns domain.ErrInvalidOperator for an unknown type.
	CheckOperator(op domain.OperatorPredicate) error
	// CheckPorts returns domain.ErrInvalidLink unless source is an output of sourceType
	// and target an input of targetType.
	CheckPorts(source domain.OperatorPort, sourceType string, target domain.OperatorPort, targetType string) error
}
