package synchronizer_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/weave/pkg/diagram"
	"github.com/aretw0/weave/pkg/dispatch"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/synchronizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *graph.Store
	dispatch *dispatch.Service
	diagram  *diagram.Diagram
	sync     *synchronizer.Synchronizer

	events   []domain.EventType
	rejected []error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: graph.NewStore()}
	n := 0
	f.dispatch = dispatch.New(f.store.Reader())
	f.diagram = diagram.New(diagram.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("edge-%d", n)
	}))
	f.sync = synchronizer.New(f.store, f.dispatch, f.diagram, synchronizer.WithHooks(domain.SyncHooks{
		OnNotification: func(n domain.Notification) { f.events = append(f.events, n.Type) },
		OnRejected:     func(_ string, err error) { f.rejected = append(f.rejected, err) },
	}))
	t.Cleanup(func() {
		assert.NoError(t, synchronizer.Verify(f.store.Reader(), f.diagram), "graph and diagram must agree")
	})
	return f
}

func port(op, p string) domain.OperatorPort {
	return domain.OperatorPort{OperatorID: op, PortID: p}
}

func (f *fixture) addOperators(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.dispatch.AddOperator(domain.OperatorPredicate{OperatorID: id, OperatorType: "ScanSource"}, domain.Point{}))
	}
}

func (f *fixture) link(t *testing.T, id, src, tgt string) domain.OperatorLink {
	t.Helper()
	l := domain.OperatorLink{LinkID: id, Source: port(src, "out0"), Target: port(tgt, "in0")}
	require.NoError(t, f.dispatch.AddLink(l))
	return l
}

func TestSync_AddOperator(t *testing.T) {
	f := newFixture(t)
	var added []domain.OperatorPredicate
	f.sync.OnOperatorAdded(func(op domain.OperatorPredicate) error {
		added = append(added, op)
		return nil
	})

	op := domain.OperatorPredicate{OperatorID: "op1", OperatorType: "ScanSource", Properties: map[string]any{"table": "t"}}
	require.NoError(t, f.dispatch.AddOperator(op, domain.Point{X: 5, Y: 5}))

	err := f.dispatch.AddOperator(domain.OperatorPredicate{OperatorID: "op1", OperatorType: "Sink"}, domain.Point{})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)

	assert.Len(t, f.store.GetOperators(), 1)
	got, err := f.store.GetOperator("op1")
	require.NoError(t, err)
	assert.Equal(t, "ScanSource", got.OperatorType)

	el, ok := f.diagram.Element("op1")
	require.True(t, ok)
	assert.Equal(t, domain.Point{X: 5, Y: 5}, el.Position)
	assert.Equal(t, []domain.OperatorPredicate{op}, added)
}

func TestSync_AddLinkMissingOperators(t *testing.T) {
	f := newFixture(t)
	err := f.dispatch.AddLink(domain.OperatorLink{LinkID: "l1", Source: port("op1", "out0"), Target: port("op2", "in0")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.store.GetLinks())
	assert.Empty(t, f.diagram.Edges())
}

func TestSync_AddAndDeleteLink(t *testing.T) {
	f := newFixture(t)
	f.addOperators(t, "op1", "op2")
	l := f.link(t, "l1", "op1", "op2")

	got, err := f.store.GetLinkWithID("l1")
	require.NoError(t, err)
	assert.Equal(t, l, got)
	_, ok := f.diagram.Edge("l1")
	assert.True(t, ok)

	err = f.dispatch.DeleteLink(domain.OperatorLink{Source: port("op2", "out0"), Target: port("op1", "in0")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, f.store.GetLinks(), 1)

	require.NoError(t, f.dispatch.DeleteLink(l))
	assert.Empty(t, f.store.GetLinks())
	assert.Empty(t, f.diagram.Edges())
	assert.Equal(t, domain.EventLinkDeleted, f.events[len(f.events)-1])
}

func TestSync_RemoveElementGestureCascades(t *testing.T) {
	f := newFixture(t)
	f.addOperators(t, "op1", "op2")
	f.link(t, "l1", "op1", "op2")
	f.events = nil

	var linksWhenOperatorDeleted int
	f.sync.OnOperatorDeleted(func(domain.OperatorPredicate) error {
		linksWhenOperatorDeleted = len(f.store.GetLinks())
		return nil
	})

	require.NoError(t, f.diagram.Remove("op1"))

	assert.Equal(t, []domain.EventType{domain.EventLinkDeleted, domain.EventOperatorDeleted}, f.events)
	assert.Zero(t, linksWhenOperatorDeleted)
	assert.False(t, f.store.HasOperator("op1"))
	assert.True(t, f.store.HasOperator("op2"))
	assert.Empty(t, f.store.GetLinks())
	assert.Empty(t, f.diagram.Edges())
}

func TestSync_DeleteOperatorAction(t *testing.T) {
	f := newFixture(t)
	f.addOperators(t, "op1", "op2", "op3")
	f.link(t, "l1", "op1", "op2")
	f.link(t, "l2", "op2", "op3")

	require.NoError(t, f.dispatch.DeleteOperator("op2"))

	assert.Empty(t, f.store.GetLinks())
	assert.Len(t, f.store.GetOperators(), 2)
	assert.ErrorIs(t, f.dispatch.DeleteOperator("op2"), domain.ErrNotFound)
}

func TestSync_RepointIsAtomicReplace(t *testing.T) {
	f := newFixture(t)
	f.addOperators(t, "op1", "op2", "op3")
	f.link(t, "l1", "op1", "op2")
	f.events = nil

	var observed []int
	count := func() { observed = append(observed, len(f.store.GetLinks())) }
	f.sync.OnLinkAdded(func(domain.OperatorLink) error { count(); return nil })
	f.sync.OnLinkDeleted(func(domain.OperatorLink) error { count(); return nil })
	var replaced []domain.LinkReplacement
	f.sync.OnLinkReplaced(func(r domain.LinkReplacement) error {
		count()
		replaced = append(replaced, r)
		return nil
	})

	edge, err := f.diagram.Repoint("l1", diagram.SideTarget, diagram.AttachedTo(port("op3", "in0")))
	require.NoError(t, err)

	links := f.store.GetLinks()
	require.Len(t, links, 1)
	assert.Equal(t, domain.OperatorLink{LinkID: edge.ID, Source: port("op1", "out0"), Target: port("op3", "in0")}, links[0])

	assert.Equal(t, []domain.EventType{domain.EventLinkReplaced, domain.EventLinkAdded}, f.events)
	assert.Equal(t, []int{1, 1}, observed, "subscribers never see two links or none")
	require.Len(t, replaced, 1)
	assert.Equal(t, "l1", replaced[0].Previous.LinkID)
	assert.Equal(t, port("op2", "in0"), replaced[0].Previous.Target)
	assert.Equal(t, links[0], replaced[0].Current)
}

func TestSync_RepointToDanglingDeletesLink(t *testing.T) {
	f := newFixture(t)
	f.addOperators(t, "op1", "op2")
	f.link(t, "l1", "op1", "op2")
	f.events = nil

	var deleted []domain.OperatorLink
	f.sync.OnLinkDeleted(func(l domain.OperatorLink) error {
		deleted = append(deleted, l)
		return nil
	})

	edge, err := f.diagram.Repoint("l1", diagram.SideTarget, diagram.DanglingAt(domain.Point{X: 9, Y: 9}))
	require.NoError(t, err)

	assert.Empty(t, f.store.GetLinks())
	assert.Equal(t, []domain.EventType{domain.EventLinkDeleted}, f.events)
	require.Len(t, deleted, 1)
	assert.Equal(t, "l1", deleted[0].LinkID)

	// Reattaching the dangling end creates a fresh link.
	edge, err = f.diagram.Repoint(edge.ID, diagram.SideTarget, diagram.AttachedTo(port("op2", "in1")))
	require.NoError(t, err)
	links := f.store.GetLinks()
	require.Len(t, links, 1)
	assert.Equal(t, edge.ID, links[0].LinkID)
	assert.Equal(t, domain.EventLinkAdded, f.events[len(f.events)-1])
}

func TestSync_RepointOntoTakenPairIsRejected(t *testing.T) {
	f := newFixture(t)
	f.addOperators(t, "op1", "op2", "op3")
	f.link(t, "l1", "op1", "op2")
	f.link(t, "l2", "op1", "op3")
	f.events = nil

	_, err := f.diagram.Repoint("l2", diagram.SideTarget, diagram.AttachedTo(port("op2", "in0")))
	assert.ErrorIs(t, err, domain.ErrDuplicateLink)
	require.Len(t, f.rejected, 1)
	assert.Empty(t, f.events)

	assert.Len(t, f.store.GetLinks(), 2)
	e, ok := f.diagram.Edge("l2")
	require.True(t, ok, "diagram restored the edge")
	assert.Equal(t, port("op3", "in0"), e.Target.Port)
}

func TestSync_RepointOntoSamePort(t *testing.T) {
	f := newFixture(t)
	f.addOperators(t, "op1", "op2")
	f.link(t, "l1", "op1", "op2")

	edge, err := f.diagram.Repoint("l1", diagram.SideTarget, diagram.AttachedTo(port("op2", "in0")))
	require.NoError(t, err)

	links := f.store.GetLinks()
	require.Len(t, links, 1)
	assert.Equal(t, edge.ID, links[0].LinkID)
}

func TestSync_ConnectGesture(t *testing.T) {
	f := newFixture(t)
	f.addOperators(t, "op1", "op2")

	edge, err := f.diagram.Connect(diagram.AttachedTo(port("op1", "out0")), diagram.DanglingAt(domain.Point{}))
	require.NoError(t, err)
	assert.Empty(t, f.store.GetLinks(), "dangling edges are not mirrored")

	_, err = f.diagram.Repoint(edge.ID, diagram.SideTarget, diagram.AttachedTo(port("op2", "in0")))
	require.NoError(t, err)
	assert.Len(t, f.store.GetLinks(), 1)

	_, err = f.diagram.Connect(diagram.AttachedTo(port("op1", "out0")), diagram.AttachedTo(port("op2", "in0")))
	assert.ErrorIs(t, err, domain.ErrDuplicateLink)
	assert.Len(t, f.rejected, 1)
	assert.Len(t, f.diagram.Edges(), 1, "rejected edge rolled back")
}

func TestSync_GestureWithTakenIDKeepsLink(t *testing.T) {
	f := newFixture(t)
	f.addOperators(t, "op1", "op2", "op3")
	// The fixture generates edge-1, then edge-2.
	f.link(t, "edge-1", "op1", "op2")
	other := f.link(t, "edge-2", "op2", "op3")

	_, err := f.diagram.Connect(diagram.AttachedTo(port("op1", "out0")), diagram.DanglingAt(domain.Point{}))
	assert.ErrorIs(t, err, domain.ErrDuplicateID)

	_, err = f.diagram.Repoint("edge-1", diagram.SideTarget, diagram.AttachedTo(port("op3", "in1")))
	assert.ErrorIs(t, err, domain.ErrDuplicateID)

	assert.Len(t, f.store.GetLinks(), 2)
	assert.Len(t, f.diagram.Edges(), 2)
	e, ok := f.diagram.Edge(other.LinkID)
	require.True(t, ok)
	assert.Equal(t, other.Target, e.Target.Port)
}

func TestSync_RemoveEdgeGesture(t *testing.T) {
	f := newFixture(t)
	f.addOperators(t, "op1", "op2")
	f.link(t, "l1", "op1", "op2")

	require.NoError(t, f.diagram.Remove("l1"))
	assert.Empty(t, f.store.GetLinks())
	assert.True(t, f.store.HasOperator("op1"))
}

func TestSync_NotificationSubscriberErrorsDoNotDiverge(t *testing.T) {
	f := newFixture(t)
	f.sync.OnOperatorAdded(func(domain.OperatorPredicate) error { return errors.New("boom") })

	f.addOperators(t, "op1")
	_, ok := f.diagram.Element("op1")
	assert.True(t, ok)
}

func TestSync_HooksSeeActions(t *testing.T) {
	store := graph.NewStore()
	svc := dispatch.New(store.Reader())
	d := diagram.New()
	var actions []domain.ActionType
	synchronizer.New(store, svc, d, synchronizer.WithHooks(domain.SyncHooks{
		OnAction: func(a domain.ActionType) { actions = append(actions, a) },
	}))

	require.NoError(t, svc.AddOperator(domain.OperatorPredicate{OperatorID: "op1", OperatorType: "A"}, domain.Point{}))
	require.NoError(t, svc.DeleteOperator("op1"))
	assert.Equal(t, []domain.ActionType{domain.ActionAddOperator, domain.ActionDeleteOperator}, actions)
}

func TestSync_Close(t *testing.T) {
	store := graph.NewStore()
	svc := dispatch.New(store.Reader())
	d := diagram.New()
	s := synchronizer.New(store, svc, d)
	s.Close()

	require.NoError(t, svc.AddOperator(domain.OperatorPredicate{OperatorID: "op1", OperatorType: "A"}, domain.Point{}))
	assert.False(t, store.HasOperator("op1"), "closed synchronizer no longer applies actions")
	assert.Empty(t, d.Elements())
}
