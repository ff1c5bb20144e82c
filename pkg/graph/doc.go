/*
Package graph implements the logical graph store: the canonical set of operators and
links of one workspace.

The store is pure data plus invariant checks. It emits nothing and knows nothing about
rendering. It is not safe for concurrent use: a workspace mutates it from a single
logical thread of control.

Two views are available. The Store itself satisfies ports.GraphStore and is meant to be
handed only to the synchronizer; Store.Reader returns a ports.GraphReader that cannot be
converted back into a mutating view.
*/
package graph
