package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/ports"
)

type pair struct {
	source domain.OperatorPort
	target domain.OperatorPort
}

// Store implements ports.GraphStore in memory.
type Store struct {
	operators map[string]domain.OperatorPredicate
	links     map[string]domain.OperatorLink
	pairs     map[pair]string // (source, target) -> link ID
}

var _ ports.GraphStore = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		operators: make(map[string]domain.OperatorPredicate),
		links:     make(map[string]domain.OperatorLink),
		pairs:     make(map[pair]string),
	}
}

// Reader returns a read-only view backed by the store.
func (s *Store) Reader() ports.GraphReader {
	return readOnly{s}
}

// readOnly hides the mutators so the view cannot be asserted back to a GraphStore.
type readOnly struct {
	ports.GraphReader
}

// HasOperator reports whether the operator exists.
func (s *Store) HasOperator(operatorID string) bool {
	_, ok := s.operators[operatorID]
	return ok
}

// GetOperator returns a copy of the operator.
func (s *Store) GetOperator(operatorID string) (domain.OperatorPredicate, error) {
	op, ok := s.operators[operatorID]
	if !ok {
		return domain.OperatorPredicate{}, fmt.Errorf("operator %q: %w", operatorID, domain.ErrNotFound)
	}
	return op.Clone(), nil
}

// GetOperators returns copies of every operator, sorted by ID.
func (s *Store) GetOperators() []domain.OperatorPredicate {
	ops := make([]domain.OperatorPredicate, 0, len(s.operators))
	for _, op := range s.operators {
		ops = append(ops, op.Clone())
	}
	slices.SortFunc(ops, func(a, b domain.OperatorPredicate) int {
		return strings.Compare(a.OperatorID, b.OperatorID)
	})
	return ops
}

// HasLinkWithID reports whether a link with the ID exists.
func (s *Store) HasLinkWithID(linkID string) bool {
	_, ok := s.links[linkID]
	return ok
}

// HasLink reports whether a link joins source to target.
func (s *Store) HasLink(source, target domain.OperatorPort) bool {
	_, ok := s.pairs[pair{source, target}]
	return ok
}

// GetLink returns the link joining source to target.
func (s *Store) GetLink(source, target domain.OperatorPort) (domain.OperatorLink, error) {
	id, ok := s.pairs[pair{source, target}]
	if !ok {
		return domain.OperatorLink{}, fmt.Errorf("link %s -> %s: %w", source, target, domain.ErrNotFound)
	}
	return s.links[id], nil
}

// GetLinkWithID returns the link with the ID.
func (s *Store) GetLinkWithID(linkID string) (domain.OperatorLink, error) {
	l, ok := s.links[linkID]
	if !ok {
		return domain.OperatorLink{}, fmt.Errorf("link %q: %w", linkID, domain.ErrNotFound)
	}
	return l, nil
}

// GetLinks returns every link, sorted by ID.
func (s *Store) GetLinks() []domain.OperatorLink {
	links := make([]domain.OperatorLink, 0, len(s.links))
	for _, l := range s.links {
		links = append(links, l)
	}
	sortLinks(links)
	return links
}

// LinksOf returns every link touching the operator, sorted by ID.
func (s *Store) LinksOf(operatorID string) []domain.OperatorLink {
	var links []domain.OperatorLink
	for _, l := range s.links {
		if l.Touches(operatorID) {
			links = append(links, l)
		}
	}
	sortLinks(links)
	return links
}

// AddOperator inserts a copy of op.
func (s *Store) AddOperator(op domain.OperatorPredicate) error {
	if s.HasOperator(op.OperatorID) {
		return fmt.Errorf("operator %q: %w", op.OperatorID, domain.ErrDuplicateID)
	}
	s.operators[op.OperatorID] = op.Clone()
	return nil
}

// DeleteOperator removes the operator and returns it.
// Links attached to it must have been deleted first.
func (s *Store) DeleteOperator(operatorID string) (domain.OperatorPredicate, error) {
	op, ok := s.operators[operatorID]
	if !ok {
		return domain.OperatorPredicate{}, fmt.Errorf("operator %q: %w", operatorID, domain.ErrNotFound)
	}
	if attached := s.LinksOf(operatorID); len(attached) > 0 {
		return domain.OperatorPredicate{}, fmt.Errorf("operator %q still has %d link(s): %w",
			operatorID, len(attached), domain.ErrDanglingReference)
	}
	delete(s.operators, operatorID)
	return op, nil
}

// AddLink inserts the link after checking endpoints, pair uniqueness and ID uniqueness.
func (s *Store) AddLink(link domain.OperatorLink) error {
	if err := s.CheckLink(link); err != nil {
		return err
	}
	s.links[link.LinkID] = link
	s.pairs[pair{link.Source, link.Target}] = link.LinkID
	return nil
}

// CheckLink reports the error AddLink would return, without mutating the store.
func (s *Store) CheckLink(link domain.OperatorLink) error {
	return CheckLink(s, link)
}

// DeleteLink removes the link joining source to target.
func (s *Store) DeleteLink(source, target domain.OperatorPort) (domain.OperatorLink, error) {
	l, err := s.GetLink(source, target)
	if err != nil {
		return domain.OperatorLink{}, err
	}
	s.remove(l)
	return l, nil
}

// DeleteLinkWithID removes the link with the ID.
func (s *Store) DeleteLinkWithID(linkID string) (domain.OperatorLink, error) {
	l, err := s.GetLinkWithID(linkID)
	if err != nil {
		return domain.OperatorLink{}, err
	}
	s.remove(l)
	return l, nil
}

func (s *Store) remove(l domain.OperatorLink) {
	delete(s.links, l.LinkID)
	delete(s.pairs, pair{l.Source, l.Target})
}

// CheckLink validates link against the graph seen through r: both endpoint operators
// must exist, the (source, target) pair must be free and the link ID unused.
func CheckLink(r ports.GraphReader, link domain.OperatorLink) error {
	for _, p := range []domain.OperatorPort{link.Source, link.Target} {
		if !r.HasOperator(p.OperatorID) {
			return fmt.Errorf("link %q endpoint operator %q: %w", link.LinkID, p.OperatorID, domain.ErrNotFound)
		}
	}
	if r.HasLink(link.Source, link.Target) {
		return fmt.Errorf("link %s -> %s: %w", link.Source, link.Target, domain.ErrDuplicateLink)
	}
	if r.HasLinkWithID(link.LinkID) {
		return fmt.Errorf("link %q: %w", link.LinkID, domain.ErrDuplicateID)
	}
	return nil
}

func sortLinks(links []domain.OperatorLink) {
	slices.SortFunc(links, func(a, b domain.OperatorLink) int {
		return strings.Compare(a.LinkID, b.LinkID)
	})
}
