package dispatch

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/stream"
)

// Service validates mutation intents and publishes them as actions.
type Service struct {
	graph   ports.GraphReader
	catalog ports.OperatorCatalog
	logger  *slog.Logger

	addOperator    *stream.Stream[domain.AddOperatorAction]
	deleteOperator *stream.Stream[domain.DeleteOperatorAction]
	addLink        *stream.Stream[domain.AddLinkAction]
	deleteLink     *stream.Stream[domain.DeleteLinkAction]
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCatalog restricts operators to the types known by catalog and links to their ports.
func WithCatalog(catalog ports.OperatorCatalog) Option {
	return func(s *Service) {
		s.catalog = catalog
	}
}

// New creates a dispatch service validating against graph.
func New(graph ports.GraphReader, opts ...Option) *Service {
	s := &Service{
		graph:          graph,
		addOperator:    stream.New[domain.AddOperatorAction]("dispatch." + string(domain.ActionAddOperator)),
		deleteOperator: stream.New[domain.DeleteOperatorAction]("dispatch." + string(domain.ActionDeleteOperator)),
		addLink:        stream.New[domain.AddLinkAction]("dispatch." + string(domain.ActionAddLink)),
		deleteLink:     stream.New[domain.DeleteLinkAction]("dispatch." + string(domain.ActionDeleteLink)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// AddOperator requests the creation of op at point.
func (s *Service) AddOperator(op domain.OperatorPredicate, point domain.Point) error {
	if err := domain.ValidateOperator(op); err != nil {
		return err
	}
	if s.catalog != nil {
		if err := s.catalog.CheckOperator(op); err != nil {
			return err
		}
	}
	if s.graph.HasOperator(op.OperatorID) {
		return fmt.Errorf("operator %q: %w", op.OperatorID, domain.ErrDuplicateID)
	}
	s.logger.Debug("dispatch: add operator", "operator_id", op.OperatorID, "type", op.OperatorType)
	return s.addOperator.Publish(domain.AddOperatorAction{Operator: op.Clone(), Point: point})
}

// DeleteOperator requests the removal of an operator and of every link touching it.
func (s *Service) DeleteOperator(operatorID string) error {
	if !s.graph.HasOperator(operatorID) {
		return fmt.Errorf("operator %q: %w", operatorID, domain.ErrNotFound)
	}
	s.logger.Debug("dispatch: delete operator", "operator_id", operatorID)
	return s.deleteOperator.Publish(domain.DeleteOperatorAction{OperatorID: operatorID})
}

// AddLink requests the creation of link.
func (s *Service) AddLink(link domain.OperatorLink) error {
	if err := domain.ValidateLink(link); err != nil {
		return err
	}
	if err := graph.CheckLink(s.graph, link); err != nil {
		return err
	}
	if s.catalog != nil {
		if err := s.checkPorts(link); err != nil {
			return err
		}
	}
	s.logger.Debug("dispatch: add link", "link", link.String())
	return s.addLink.Publish(domain.AddLinkAction{Link: link})
}

func (s *Service) checkPorts(link domain.OperatorLink) error {
	source, err := s.graph.GetOperator(link.Source.OperatorID)
	if err != nil {
		return err
	}
	target, err := s.graph.GetOperator(link.Target.OperatorID)
	if err != nil {
		return err
	}
	return s.catalog.CheckPorts(link.Source, source.OperatorType, link.Target, target.OperatorType)
}

// DeleteLink requests the removal of the link joining link.Source to link.Target.
// Only the endpoints are significant; link.LinkID is ignored.
func (s *Service) DeleteLink(link domain.OperatorLink) error {
	if !s.graph.HasLink(link.Source, link.Target) {
		return fmt.Errorf("link %s -> %s: %w", link.Source, link.Target, domain.ErrNotFound)
	}
	s.logger.Debug("dispatch: delete link", "source", link.Source.String(), "target", link.Target.String())
	return s.deleteLink.Publish(domain.DeleteLinkAction{Link: link})
}

// OnAddOperator subscribes to add-operator actions.
func (s *Service) OnAddOperator(fn func(domain.AddOperatorAction) error) func() {
	return s.addOperator.Subscribe(fn)
}

// OnDeleteOperator subscribes to delete-operator actions.
func (s *Service) OnDeleteOperator(fn func(domain.DeleteOperatorAction) error) func() {
	return s.deleteOperator.Subscribe(fn)
}

// OnAddLink subscribes to add-link actions.
func (s *Service) OnAddLink(fn func(domain.AddLinkAction) error) func() {
	return s.addLink.Subscribe(fn)
}

// OnDeleteLink subscribes to delete-link actions.
func (s *Service) OnDeleteLink(fn func(domain.DeleteLinkAction) error) func() {
	return s.deleteLink.Subscribe(fn)
}

// Close ends every action stream.
func (s *Service) Close() {
	s.addOperator.Close()
	s.deleteOperator.Close()
	s.addLink.Close()
	s.deleteLink.Close()
}
