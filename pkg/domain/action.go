package domain

// ActionType names a kind of programmatic mutation intent.
type ActionType string

// Standard Action Types
const (
	ActionAddOperator    ActionType = "add_operator"
	ActionDeleteOperator ActionType = "delete_operator"
	ActionAddLink        ActionType = "add_link"
	ActionDeleteLink     ActionType = "delete_link"
)

// AddOperatorAction asks for an operator to be created and placed at Point.
type AddOperatorAction struct {
	Operator OperatorPredicate `json:"operator"`
	Point    Point             `json:"point"`
}

// DeleteOperatorAction asks for an operator (and every link touching it) to be removed.
type DeleteOperatorAction struct {
	OperatorID string `json:"operatorID"`
}

// AddLinkAction asks for a link to be created.
type AddLinkAction struct {
	Link OperatorLink `json:"link"`
}

// DeleteLinkAction asks for the link matching Link's endpoints to be removed.
type DeleteLinkAction struct {
	Link OperatorLink `json:"link"`
}
