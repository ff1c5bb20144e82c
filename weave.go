package weave

import (
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/weave/pkg/diagram"
	"github.com/aretw0/weave/pkg/dispatch"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/synchronizer"
)

// Workspace is the high-level entry point of the library.
// It owns one logical graph, one diagram and the components keeping them in sync,
// and serializes every call so that concurrent adapters (HTTP, MCP) still drive the
// core as a single logical thread.
type Workspace struct {
	mu sync.Mutex

	store    *graph.Store
	dispatch *dispatch.Service
	diagram  *diagram.Diagram
	sync     *synchronizer.Synchronizer

	newID   func() string
	catalog ports.OperatorCatalog
	hooks   domain.SyncHooks
	logger  *slog.Logger
	Name    string
}

// Option defines a functional option for configuring the Workspace.
type Option func(*Workspace)

// WithLogger sets a custom structured logger for the workspace.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.SyncHooks) Option {
	return func(w *Workspace) {
		w.hooks = hooks
	}
}

// WithIDGenerator sets the function naming edges drawn or re-pointed on the diagram.
func WithIDGenerator(fn func() string) Option {
	return func(w *Workspace) {
		w.newID = fn
	}
}

// WithCatalog restricts dispatched operators and links to the types registered in catalog.
// Links drawn directly on the diagram are not checked.
func WithCatalog(catalog ports.OperatorCatalog) Option {
	return func(w *Workspace) {
		w.catalog = catalog
	}
}

// WithName labels the workspace; the name is added to every log line.
func WithName(name string) Option {
	return func(w *Workspace) {
		w.Name = name
	}
}

// New builds an empty workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{}
	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if w.Name != "" {
		w.logger = w.logger.With("workspace", w.Name)
	}

	diagramOpts := []diagram.Option{diagram.WithLogger(w.logger)}
	if w.newID != nil {
		diagramOpts = append(diagramOpts, diagram.WithIDGenerator(w.newID))
	}

	w.store = graph.NewStore()
	dispatchOpts := []dispatch.Option{dispatch.WithLogger(w.logger)}
	if w.catalog != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithCatalog(w.catalog))
	}
	w.dispatch = dispatch.New(w.store.Reader(), dispatchOpts...)
	w.diagram = diagram.New(diagramOpts...)
	w.sync = synchronizer.New(w.store, w.dispatch, w.diagram,
		synchronizer.WithLogger(w.logger),
		synchronizer.WithHooks(w.hooks),
	)
	return w
}

// Close detaches every component. The workspace must not be used afterwards.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sync.Close()
	w.dispatch.Close()
	w.diagram.Close()
}

// -- Programmatic mutations --

// AddOperator adds op to the graph and places its element at point.
func (w *Workspace) AddOperator(op domain.OperatorPredicate, point domain.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dispatch.AddOperator(op, point)
}

// DeleteOperator removes an operator and every link touching it.
func (w *Workspace) DeleteOperator(operatorID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dispatch.DeleteOperator(operatorID)
}

// AddLink adds a link between two existing operators.
func (w *Workspace) AddLink(link domain.OperatorLink) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dispatch.AddLink(link)
}

// DeleteLink removes the link joining link.Source to link.Target.
func (w *Workspace) DeleteLink(link domain.OperatorLink) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dispatch.DeleteLink(link)
}

// -- Gestures --

// Connect draws an edge on the diagram. Fully attached edges become links.
func (w *Workspace) Connect(source, target diagram.End) (diagram.Edge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.diagram.Connect(source, target)
}

// Repoint moves one end of an edge. A link re-pointed between ports is replaced atomically.
func (w *Workspace) Repoint(edgeID string, side diagram.Side, to diagram.End) (diagram.Edge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.diagram.Repoint(edgeID, side, to)
}

// RemoveCell deletes an element or an edge from the diagram.
func (w *Workspace) RemoveCell(cellID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.diagram.Remove(cellID)
}

// Move repositions an element.
func (w *Workspace) Move(operatorID string, to domain.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.diagram.Move(operatorID, to)
}

// -- Queries --

// Graph returns a snapshot of the logical graph.
func (w *Workspace) Graph() domain.GraphSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.GraphSnapshot{
		Operators: w.store.GetOperators(),
		Links:     w.store.GetLinks(),
	}
}

// Operator returns one operator of the graph.
func (w *Workspace) Operator(operatorID string) (domain.OperatorPredicate, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.GetOperator(operatorID)
}

// DiagramSnapshot is a point-in-time copy of the diagram cells.
type DiagramSnapshot struct {
	Elements []diagram.Element `json:"elements"`
	Edges    []diagram.Edge    `json:"edges"`
}

// Diagram returns a snapshot of the diagram.
func (w *Workspace) Diagram() DiagramSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return DiagramSnapshot{
		Elements: w.diagram.Elements(),
		Edges:    w.diagram.Edges(),
	}
}

// Check reports advisory structural issues such as cycles or disconnected operators.
func (w *Workspace) Check() []graph.Issue {
	w.mu.Lock()
	defer w.mu.Unlock()
	return graph.Check(w.store)
}

// Verify returns synchronizer.ErrDiverged if the graph and the diagram disagree.
func (w *Workspace) Verify() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return synchronizer.Verify(w.store, w.diagram)
}

// -- Notifications --

// Subscribe delivers every domain notification to fn, in order, on the goroutine
// that caused it. fn runs while the workspace is locked: it must not call back
// into the workspace, and it must not block.
func (w *Workspace) Subscribe(fn func(domain.Notification)) (unsubscribe func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	unsubs := []func(){
		w.sync.OnOperatorAdded(func(op domain.OperatorPredicate) error {
			fn(domain.OperatorNotification(domain.EventOperatorAdded, op))
			return nil
		}),
		w.sync.OnOperatorDeleted(func(op domain.OperatorPredicate) error {
			fn(domain.OperatorNotification(domain.EventOperatorDeleted, op))
			return nil
		}),
		w.sync.OnLinkAdded(func(l domain.OperatorLink) error {
			fn(domain.LinkNotification(domain.EventLinkAdded, l))
			return nil
		}),
		w.sync.OnLinkDeleted(func(l domain.OperatorLink) error {
			fn(domain.LinkNotification(domain.EventLinkDeleted, l))
			return nil
		}),
		w.sync.OnLinkReplaced(func(r domain.LinkReplacement) error {
			fn(domain.ReplaceNotification(r))
			return nil
		}),
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			for _, u := range unsubs {
				u()
			}
		})
	}
}

// Notifier exposes the typed notification streams. Callers are responsible for
// not subscribing concurrently with workspace calls.
func (w *Workspace) Notifier() ports.Notifier {
	return w.sync
}
