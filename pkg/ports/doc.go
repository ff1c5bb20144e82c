/*
Package ports defines the interfaces that bind the Weave components together.

These interfaces decouple the synchronization core from concrete implementations and
encode who may do what: every collaborator receives a GraphReader, while only the
synchronizer receives the privileged GraphStore.

# Key Interfaces

  - GraphReader: read-only queries over the logical graph.
  - GraphStore: GraphReader plus the mutators that keep the graph consistent.
  - Notifier: the domain notification streams re-published after a mutation.
  - OperatorCatalog: the optional registry of operator types consulted by dispatch.
*/
package ports
