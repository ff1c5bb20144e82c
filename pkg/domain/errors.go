package domain

import "errors"

// ErrNotFound is returned when a referenced operator, link or cell does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when an operator or link ID is already taken.
var ErrDuplicateID = errors.New("duplicate id")

// ErrDuplicateLink is returned when a link with the same (source, target) pair already exists.
var ErrDuplicateLink = errors.New("duplicate link")

// ErrInvalidEdge is returned when a dangling diagram edge is translated into a link.
var ErrInvalidEdge = errors.New("invalid edge")

// ErrInvalidOperator is returned when an operator predicate is missing its ID or type.
var ErrInvalidOperator = errors.New("invalid operator")

// ErrInvalidLink is returned when a link is missing its ID or one of its ports.
var ErrInvalidLink = errors.New("invalid link")

// ErrDanglingReference is returned when an operator is deleted while links still point at it.
var ErrDanglingReference = errors.New("dangling reference")
