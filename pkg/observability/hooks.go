package observability

import (
	"log/slog"

	"github.com/aretw0/weave/pkg/domain"
)

// LogHooks returns hooks that write an audit trail of the synchronizer's activity.
func LogHooks(logger *slog.Logger) domain.SyncHooks {
	return domain.SyncHooks{
		OnAction: func(t domain.ActionType) {
			logger.Debug("action", "type", t)
		},
		OnNotification: func(n domain.Notification) {
			attrs := []any{"type", n.Type}
			if n.Operator != nil {
				attrs = append(attrs, "operator_id", n.Operator.OperatorID)
			}
			if n.Link != nil {
				attrs = append(attrs, "link", n.Link.String())
			}
			if n.Previous != nil {
				attrs = append(attrs, "previous", n.Previous.String())
			}
			logger.Info("notification", attrs...)
		},
		OnRejected: func(origin string, err error) {
			logger.Warn("rejected", "origin", origin, "err", err)
		},
	}
}

// Combine fans every callback out to each set of hooks, in order.
func Combine(hooks ...domain.SyncHooks) domain.SyncHooks {
	return domain.SyncHooks{
		OnAction: func(t domain.ActionType) {
			for _, h := range hooks {
				if h.OnAction != nil {
					h.OnAction(t)
				}
			}
		},
		OnNotification: func(n domain.Notification) {
			for _, h := range hooks {
				if h.OnNotification != nil {
					h.OnNotification(n)
				}
			}
		},
		OnRejected: func(origin string, err error) {
			for _, h := range hooks {
				if h.OnRejected != nil {
					h.OnRejected(origin, err)
				}
			}
		},
	}
}
