/*
Package domain contains the core value types of a Weave workspace.

It defines the vocabulary shared by every other package: operators and the links
between them, the action payloads published by the dispatch service and the
notifications re-published once a mutation has been applied. The package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - OperatorPredicate: a node of the dataflow graph (ID, type tag, configuration).
  - OperatorPort: an attachment point on an operator.
  - OperatorLink: a directed edge from a source port to a target port.
  - Point: a placement hint carried for rendering purposes only.
  - GraphDiff: the changes turning one graph snapshot into another.
*/
package domain
