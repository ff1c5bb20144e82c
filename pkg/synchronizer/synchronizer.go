package synchronizer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/weave/pkg/diagram"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/stream"
)

// Actions is the action side of the dispatch service.
type Actions interface {
	OnAddOperator(fn func(domain.AddOperatorAction) error) func()
	OnDeleteOperator(fn func(domain.DeleteOperatorAction) error) func()
	OnAddLink(fn func(domain.AddLinkAction) error) func()
	OnDeleteLink(fn func(domain.DeleteLinkAction) error) func()
}

// Surface is the command and event contract of a diagram.
type Surface interface {
	AddElement(op domain.OperatorPredicate, point domain.Point) error
	RemoveElement(operatorID string) error
	AddEdge(link domain.OperatorLink) error
	RemoveEdge(source, target domain.OperatorPort) error

	OnElementRemoved(fn func(operatorID string) error) func()
	OnEdgeAdded(fn func(diagram.Edge) error) func()
	OnEdgeRemoved(fn func(diagram.Edge) error) func()
	OnEdgeEndpointChanged(fn func(diagram.EndpointChange) error) func()
}

// Synchronizer applies actions and diagram events to the logical graph.
type Synchronizer struct {
	store   ports.GraphStore
	surface Surface
	logger  *slog.Logger
	hooks   domain.SyncHooks

	operatorAdded   *stream.Stream[domain.OperatorPredicate]
	operatorDeleted *stream.Stream[domain.OperatorPredicate]
	linkAdded       *stream.Stream[domain.OperatorLink]
	linkDeleted     *stream.Stream[domain.OperatorLink]
	linkReplaced    *stream.Stream[domain.LinkReplacement]

	unsubscribe []func()
}

var _ ports.Notifier = (*Synchronizer)(nil)

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.SyncHooks) Option {
	return func(s *Synchronizer) {
		s.hooks = hooks
	}
}

// New wires a synchronizer between the store, the action source and the diagram.
// It subscribes immediately; call Close to detach it.
func New(store ports.GraphStore, actions Actions, surface Surface, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:           store,
		surface:         surface,
		operatorAdded:   stream.New[domain.OperatorPredicate]("sync." + string(domain.EventOperatorAdded)),
		operatorDeleted: stream.New[domain.OperatorPredicate]("sync." + string(domain.EventOperatorDeleted)),
		linkAdded:       stream.New[domain.OperatorLink]("sync." + string(domain.EventLinkAdded)),
		linkDeleted:     stream.New[domain.OperatorLink]("sync." + string(domain.EventLinkDeleted)),
		linkReplaced:    stream.New[domain.LinkReplacement]("sync." + string(domain.EventLinkReplaced)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s.unsubscribe = []func(){
		actions.OnAddOperator(s.handleAddOperator),
		actions.OnDeleteOperator(s.handleDeleteOperator),
		actions.OnAddLink(s.handleAddLink),
		actions.OnDeleteLink(s.handleDeleteLink),

		surface.OnElementRemoved(s.handleElementRemoved),
		surface.OnEdgeAdded(s.handleEdgeAdded),
		surface.OnEdgeRemoved(s.handleEdgeRemoved),
		surface.OnEdgeEndpointChanged(s.handleEndpointChanged),
	}
	return s
}

// Close detaches the synchronizer from its sources and ends its notification streams.
func (s *Synchronizer) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil

	s.operatorAdded.Close()
	s.operatorDeleted.Close()
	s.linkAdded.Close()
	s.linkDeleted.Close()
	s.linkReplaced.Close()
}

// -- Notifications --

func (s *Synchronizer) OnOperatorAdded(fn func(domain.OperatorPredicate) error) func() {
	return s.operatorAdded.Subscribe(fn)
}

func (s *Synchronizer) OnOperatorDeleted(fn func(domain.OperatorPredicate) error) func() {
	return s.operatorDeleted.Subscribe(fn)
}

func (s *Synchronizer) OnLinkAdded(fn func(domain.OperatorLink) error) func() {
	return s.linkAdded.Subscribe(fn)
}

func (s *Synchronizer) OnLinkDeleted(fn func(domain.OperatorLink) error) func() {
	return s.linkDeleted.Subscribe(fn)
}

func (s *Synchronizer) OnLinkReplaced(fn func(domain.LinkReplacement) error) func() {
	return s.linkReplaced.Subscribe(fn)
}

// -- Action handlers --

func (s *Synchronizer) handleAddOperator(a domain.AddOperatorAction) error {
	s.action(domain.ActionAddOperator)
	if err := domain.ValidateOperator(a.Operator); err != nil {
		return err
	}
	if err := s.store.AddOperator(a.Operator); err != nil {
		return err
	}
	s.notifyOperator(domain.EventOperatorAdded, a.Operator)
	if err := s.surface.AddElement(a.Operator, a.Point); err != nil {
		return fmt.Errorf("render operator %q: %w", a.Operator.OperatorID, err)
	}
	return nil
}

func (s *Synchronizer) handleDeleteOperator(a domain.DeleteOperatorAction) error {
	s.action(domain.ActionDeleteOperator)
	return s.surface.RemoveElement(a.OperatorID)
}

func (s *Synchronizer) handleAddLink(a domain.AddLinkAction) error {
	s.action(domain.ActionAddLink)
	return s.surface.AddEdge(a.Link)
}

func (s *Synchronizer) handleDeleteLink(a domain.DeleteLinkAction) error {
	s.action(domain.ActionDeleteLink)
	return s.surface.RemoveEdge(a.Link.Source, a.Link.Target)
}

// -- Diagram handlers --

func (s *Synchronizer) handleElementRemoved(operatorID string) error {
	if !s.store.HasOperator(operatorID) {
		return nil
	}
	// The diagram cascade has normally removed the links already.
	for _, l := range s.store.LinksOf(operatorID) {
		if _, err := s.store.DeleteLinkWithID(l.LinkID); err != nil {
			return err
		}
		s.notifyLink(domain.EventLinkDeleted, l)
	}
	op, err := s.store.DeleteOperator(operatorID)
	if err != nil {
		return err
	}
	s.notifyOperator(domain.EventOperatorDeleted, op)
	return nil
}

func (s *Synchronizer) handleEdgeAdded(e diagram.Edge) error {
	if !diagram.IsValid(e) {
		return nil
	}
	link, err := diagram.ToOperatorLink(e)
	if err != nil {
		return err
	}
	if err := s.store.AddLink(link); err != nil {
		return s.reject("edge_added", err)
	}
	s.notifyLink(domain.EventLinkAdded, link)
	return nil
}

func (s *Synchronizer) handleEdgeRemoved(e diagram.Edge) error {
	if !diagram.IsValid(e) {
		return nil
	}
	link, err := s.store.DeleteLink(e.Source.Port, e.Target.Port)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.notifyLink(domain.EventLinkDeleted, link)
	return nil
}

// handleEndpointChanged validates the replacement before touching the store, then
// deletes the previous link and adds the new one, and only then notifies. Subscribers
// therefore never observe the graph with both links or with neither.
func (s *Synchronizer) handleEndpointChanged(c diagram.EndpointChange) error {
	var next domain.OperatorLink
	valid := diagram.IsValid(c.Current)
	if valid {
		var err error
		if next, err = diagram.ToOperatorLink(c.Current); err != nil {
			return err
		}
		if err := s.checkReplacement(c.Previous.ID, next); err != nil {
			return s.reject("edge_endpoint_changed", err)
		}
	}

	prev, err := s.store.DeleteLinkWithID(c.Previous.ID)
	hadPrevious := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if valid {
		if err := s.store.AddLink(next); err != nil {
			if hadPrevious {
				if restoreErr := s.store.AddLink(prev); restoreErr != nil {
					err = errors.Join(err, restoreErr)
				}
			}
			return s.reject("edge_endpoint_changed", err)
		}
	}

	switch {
	case valid && hadPrevious:
		s.logger.Debug("sync: link replaced", "previous", prev.String(), "current", next.String())
		s.publish(domain.ReplaceNotification(domain.LinkReplacement{Previous: prev, Current: next}),
			func() error { return s.linkReplaced.Publish(domain.LinkReplacement{Previous: prev, Current: next}) })
		s.notifyLink(domain.EventLinkAdded, next)
	case valid:
		s.notifyLink(domain.EventLinkAdded, next)
	case hadPrevious:
		s.notifyLink(domain.EventLinkDeleted, prev)
	}
	return nil
}

// checkReplacement verifies that link can take the place of the link previousID.
func (s *Synchronizer) checkReplacement(previousID string, link domain.OperatorLink) error {
	for _, p := range []domain.OperatorPort{link.Source, link.Target} {
		if !s.store.HasOperator(p.OperatorID) {
			return fmt.Errorf("link %q endpoint operator %q: %w", link.LinkID, p.OperatorID, domain.ErrNotFound)
		}
	}
	if owner, err := s.store.GetLink(link.Source, link.Target); err == nil && owner.LinkID != previousID {
		return fmt.Errorf("link %s -> %s: %w", link.Source, link.Target, domain.ErrDuplicateLink)
	}
	if link.LinkID != previousID && s.store.HasLinkWithID(link.LinkID) {
		return fmt.Errorf("link %q: %w", link.LinkID, domain.ErrDuplicateID)
	}
	return nil
}

// -- Internals --

func (s *Synchronizer) action(t domain.ActionType) {
	if s.hooks.OnAction != nil {
		s.hooks.OnAction(t)
	}
}

func (s *Synchronizer) reject(origin string, err error) error {
	s.logger.Warn("sync: diagram change rejected", "origin", origin, "err", err)
	if s.hooks.OnRejected != nil {
		s.hooks.OnRejected(origin, err)
	}
	return err
}

func (s *Synchronizer) notifyOperator(t domain.EventType, op domain.OperatorPredicate) {
	target := s.operatorAdded
	if t == domain.EventOperatorDeleted {
		target = s.operatorDeleted
	}
	s.logger.Debug("sync: "+string(t), "operator_id", op.OperatorID)
	s.publish(domain.OperatorNotification(t, op), func() error { return target.Publish(op.Clone()) })
}

func (s *Synchronizer) notifyLink(t domain.EventType, link domain.OperatorLink) {
	target := s.linkAdded
	if t == domain.EventLinkDeleted {
		target = s.linkDeleted
	}
	s.logger.Debug("sync: "+string(t), "link", link.String())
	s.publish(domain.LinkNotification(t, link), func() error { return target.Publish(link) })
}

// publish delivers a notification once the store already holds the change.
// Subscriber failures cannot undo it, so they are logged and not returned.
func (s *Synchronizer) publish(n domain.Notification, deliver func() error) {
	if err := deliver(); err != nil {
		s.logger.Error("sync: notification subscriber failed", "type", n.Type, "err", err)
	}
	if s.hooks.OnNotification != nil {
		s.hooks.OnNotification(n)
	}
}
