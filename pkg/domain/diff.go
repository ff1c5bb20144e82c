package domain

import (
	"reflect"
)

// GraphDiff lists the changes turning one graph snapshot into another.
// Operators are matched by ID; links by ID.
type GraphDiff struct {
	AddedOperators   []OperatorPredicate `json:"addedOperators,omitempty"`
	RemovedOperators []OperatorPredicate `json:"removedOperators,omitempty"`
	// ChangedOperators holds the new version of operators whose type or properties differ.
	ChangedOperators []OperatorPredicate `json:"changedOperators,omitempty"`
	AddedLinks       []OperatorLink      `json:"addedLinks,omitempty"`
	RemovedLinks     []OperatorLink      `json:"removedLinks,omitempty"`
}

// Diff calculates the difference between oldGraph and newGraph.
// The result keeps the ID order of the snapshots.
func Diff(oldGraph, newGraph GraphSnapshot) GraphDiff {
	var d GraphDiff

	oldOps := make(map[string]OperatorPredicate, len(oldGraph.Operators))
	for _, op := range oldGraph.Operators {
		oldOps[op.OperatorID] = op
	}
	newOps := make(map[string]bool, len(newGraph.Operators))
	for _, op := range newGraph.Operators {
		newOps[op.OperatorID] = true
		prev, exists := oldOps[op.OperatorID]
		switch {
		case !exists:
			d.AddedOperators = append(d.AddedOperators, op)
		case !sameOperator(prev, op):
			d.ChangedOperators = append(d.ChangedOperators, op)
		}
	}
	for _, op := range oldGraph.Operators {
		if !newOps[op.OperatorID] {
			d.RemovedOperators = append(d.RemovedOperators, op)
		}
	}

	oldLinks := make(map[string]OperatorLink, len(oldGraph.Links))
	for _, l := range oldGraph.Links {
		oldLinks[l.LinkID] = l
	}
	newLinks := make(map[string]bool, len(newGraph.Links))
	for _, l := range newGraph.Links {
		newLinks[l.LinkID] = true
		prev, exists := oldLinks[l.LinkID]
		if !exists {
			d.AddedLinks = append(d.AddedLinks, l)
			continue
		}
		// A link keeping its ID across different endpoints is a removal plus an addition.
		if !prev.SameEndpoints(l) {
			d.RemovedLinks = append(d.RemovedLinks, prev)
			d.AddedLinks = append(d.AddedLinks, l)
		}
	}
	for _, l := range oldGraph.Links {
		if !newLinks[l.LinkID] {
			d.RemovedLinks = append(d.RemovedLinks, l)
		}
	}
	return d
}

func sameOperator(a, b OperatorPredicate) bool {
	if a.OperatorType != b.OperatorType {
		return false
	}
	if len(a.Properties) == 0 && len(b.Properties) == 0 {
		return true
	}
	return reflect.DeepEqual(a.Properties, b.Properties)
}

// IsEmpty checks if the diff contains any change.
func (d GraphDiff) IsEmpty() bool {
	return len(d.AddedOperators) == 0 &&
		len(d.RemovedOperators) == 0 &&
		len(d.ChangedOperators) == 0 &&
		len(d.AddedLinks) == 0 &&
		len(d.RemovedLinks) == 0
}
