package domain

// GraphSnapshot is a point-in-time copy of the logical graph, sorted by ID.
type GraphSnapshot struct {
	Operators []OperatorPredicate `json:"operators"`
	Links     []OperatorLink      `json:"links"`
}
