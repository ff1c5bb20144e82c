package domain

import "time"

// EventType defines the category of a notification.
type EventType string

const (
	EventOperatorAdded   EventType = "operator_added"
	EventOperatorDeleted EventType = "operator_deleted"
	EventLinkAdded       EventType = "link_added"
	EventLinkDeleted     EventType = "link_deleted"
	EventLinkReplaced    EventType = "link_replaced"
)

// LinkReplacement describes a link re-pointed on the diagram in one atomic step.
type LinkReplacement struct {
	Previous OperatorLink `json:"previous"`
	Current  OperatorLink `json:"current"`
}

// Notification is the uniform envelope for domain notifications.
// It is what relays and event streams (SSE, Redis) carry over the wire.
type Notification struct {
	Timestamp time.Time          `json:"timestamp"`
	Type      EventType          `json:"type"`
	Operator  *OperatorPredicate `json:"operator,omitempty"`
	Link      *OperatorLink      `json:"link,omitempty"`
	Previous  *OperatorLink      `json:"previous,omitempty"`
}

// OperatorNotification wraps an operator event.
func OperatorNotification(t EventType, op OperatorPredicate) Notification {
	return Notification{Timestamp: time.Now().UTC(), Type: t, Operator: &op}
}

// LinkNotification wraps a link event.
func LinkNotification(t EventType, link OperatorLink) Notification {
	return Notification{Timestamp: time.Now().UTC(), Type: t, Link: &link}
}

// ReplaceNotification wraps a link replacement.
func ReplaceNotification(r LinkReplacement) Notification {
	return Notification{
		Timestamp: time.Now().UTC(),
		Type:      EventLinkReplaced,
		Link:      &r.Current,
		Previous:  &r.Previous,
	}
}

// SyncHooks defines callbacks for synchronizer observability.
// Every field is optional.
type SyncHooks struct {
	// OnAction fires when an action from the dispatch service is handled.
	OnAction func(ActionType)
	// OnNotification fires after a domain notification has been published.
	OnNotification func(Notification)
	// OnRejected fires when a mutation derived from a diagram event fails validation.
	OnRejected func(origin string, err error)
}
