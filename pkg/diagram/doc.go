/*
Package diagram implements the diagram adapter: the visual cell graph that mirrors the
logical graph of a workspace.

Cells come in two kinds. An Element stands for one operator and is keyed by the
operator ID. An Edge stands for one link; each of its ends is either attached to an
operator port or left dangling at a free point while the user is dragging it.

The adapter exposes three surfaces:

  - Commands (AddElement, RemoveElement, AddEdge, RemoveEdge) used by the synchronizer
    to render logical changes.
  - Gestures (Connect, Repoint, Remove, Move) standing in for direct manipulation on the
    rendering surface.
  - Event streams (OnElementRemoved, OnEdgeAdded, OnEdgeRemoved, OnEdgeEndpointChanged)
    reporting every cell change regardless of its origin.

Removing an element removes the edges attached to it first, so subscribers always see
the edge removals before the element removal.
*/
package diagram
