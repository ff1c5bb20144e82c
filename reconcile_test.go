package weave_test

import (
	"testing"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *weave.Workspace {
	t.Helper()
	ws := weave.New()
	t.Cleanup(ws.Close)
	require.NoError(t, ws.AddOperator(domain.OperatorPredicate{OperatorID: "scan", OperatorType: "ScanSource",
		Properties: map[string]any{"table": "orders"}}, domain.Point{X: 10}))
	require.NoError(t, ws.AddOperator(domain.OperatorPredicate{OperatorID: "filter", OperatorType: "Filter"}, domain.Point{X: 50}))
	require.NoError(t, ws.AddOperator(domain.OperatorPredicate{OperatorID: "sink", OperatorType: "Sink"}, domain.Point{X: 90}))
	require.NoError(t, ws.AddLink(domain.OperatorLink{LinkID: "l1", Source: port("scan", "out0"), Target: port("filter", "in0")}))
	require.NoError(t, ws.AddLink(domain.OperatorLink{LinkID: "l2", Source: port("filter", "out0"), Target: port("sink", "in0")}))
	return ws
}

func positions(ws *weave.Workspace) map[string]domain.Point {
	out := make(map[string]domain.Point)
	for _, el := range ws.Diagram().Elements {
		out[el.ID] = el.Position
	}
	return out
}

func TestWorkspace_ReconcileFromEmpty(t *testing.T) {
	src := seeded(t)

	dst := weave.New()
	defer dst.Close()
	diff, err := dst.Reconcile(src.Graph(), positions(src))
	require.NoError(t, err)
	assert.Len(t, diff.AddedOperators, 3)
	assert.Len(t, diff.AddedLinks, 2)

	assert.Equal(t, src.Graph(), dst.Graph())
	assert.Equal(t, positions(src), positions(dst))
	assert.NoError(t, dst.Verify())

	diff, err = dst.Reconcile(src.Graph(), nil)
	require.NoError(t, err)
	assert.True(t, diff.IsEmpty(), "reconciling to the same graph is a no-op")
}

func TestWorkspace_ReconcileAppliesDiff(t *testing.T) {
	ws := seeded(t)

	// Change the scan table, drop the sink and move the filter.
	target := domain.GraphSnapshot{
		Operators: []domain.OperatorPredicate{
			{OperatorID: "filter", OperatorType: "Filter"},
			{OperatorID: "scan", OperatorType: "ScanSource", Properties: map[string]any{"table": "customers"}},
		},
		Links: []domain.OperatorLink{{LinkID: "l1", Source: port("scan", "out0"), Target: port("filter", "in0")}},
	}

	var events []domain.EventType
	defer ws.Subscribe(func(n domain.Notification) { events = append(events, n.Type) })()

	diff, err := ws.Reconcile(target, map[string]domain.Point{"scan": {X: 10}, "filter": {X: 70}})
	require.NoError(t, err)
	assert.Len(t, diff.ChangedOperators, 1)
	assert.Len(t, diff.RemovedOperators, 1)
	assert.Len(t, diff.RemovedLinks, 1)

	g := ws.Graph()
	require.Len(t, g.Operators, 2)
	assert.Equal(t, "customers", g.Operators[1].Properties["table"])
	require.Len(t, g.Links, 1)
	assert.Equal(t, "l1", g.Links[0].LinkID, "link of the re-created operator is restored")
	assert.Equal(t, domain.Point{X: 70}, positions(ws)["filter"])
	assert.NoError(t, ws.Verify())
	assert.Contains(t, events, domain.EventOperatorDeleted)
}

func TestWorkspace_ReconcileRejectsInconsistentTarget(t *testing.T) {
	ws := seeded(t)
	before := ws.Graph()

	_, err := ws.Reconcile(domain.GraphSnapshot{
		Operators: []domain.OperatorPredicate{{OperatorID: "a", OperatorType: "T"}},
		Links:     []domain.OperatorLink{{LinkID: "l", Source: port("a", "out0"), Target: port("ghost", "in0")}},
	}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, before, ws.Graph())
}

func TestWorkspace_ReconcileKeepsPositionOfChangedOperator(t *testing.T) {
	ws := seeded(t)
	target := ws.Graph()
	target.Operators[1].Properties = map[string]any{"table": "customers"}
	require.Equal(t, "scan", target.Operators[1].OperatorID)

	diff, err := ws.Reconcile(target, nil)
	require.NoError(t, err)
	require.Len(t, diff.ChangedOperators, 1)

	assert.Equal(t, domain.Point{X: 10}, positions(ws)["scan"])
	assert.NoError(t, ws.Verify())
}
