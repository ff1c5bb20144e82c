package registry_test

import (
	"testing"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() *registry.Registry {
	return registry.NewRegistry(
		registry.OperatorType{Name: "ScanSource", Outputs: []string{"out0"}},
		registry.OperatorType{Name: "Join", Inputs: []string{"left", "right"}, Outputs: []string{"out0"}},
	)
}

func TestRegistry_Lookup(t *testing.T) {
	r := catalog()
	join, ok := r.Lookup("Join")
	require.True(t, ok)
	assert.Equal(t, []string{"left", "right"}, join.Inputs)

	r.Register(registry.OperatorType{Name: "Join", Inputs: []string{"in0"}})
	join, _ = r.Lookup("Join")
	assert.Equal(t, []string{"in0"}, join.Inputs, "register overwrites")

	_, ok = r.Lookup("Missing")
	assert.False(t, ok)
}

func TestRegistry_Checks(t *testing.T) {
	r := catalog()
	assert.NoError(t, r.CheckOperator(domain.OperatorPredicate{OperatorID: "a", OperatorType: "Join"}))
	assert.ErrorIs(t, r.CheckOperator(domain.OperatorPredicate{OperatorID: "a", OperatorType: "Nope"}), domain.ErrInvalidOperator)

	src := domain.OperatorPort{OperatorID: "scan", PortID: "out0"}
	assert.NoError(t, r.CheckPorts(src, "ScanSource", domain.OperatorPort{OperatorID: "j", PortID: "left"}, "Join"))
	assert.ErrorIs(t, r.CheckPorts(src, "ScanSource", domain.OperatorPort{OperatorID: "j", PortID: "in0"}, "Join"), domain.ErrInvalidLink)
	assert.ErrorIs(t, r.CheckPorts(domain.OperatorPort{OperatorID: "scan", PortID: "in0"}, "ScanSource", domain.OperatorPort{OperatorID: "j", PortID: "left"}, "Join"), domain.ErrInvalidLink)
}

func TestWorkspace_WithCatalog(t *testing.T) {
	ws := weave.New(weave.WithCatalog(catalog()))
	defer ws.Close()

	require.NoError(t, ws.AddOperator(domain.OperatorPredicate{OperatorID: "scan", OperatorType: "ScanSource"}, domain.Point{}))
	require.NoError(t, ws.AddOperator(domain.OperatorPredicate{OperatorID: "join", OperatorType: "Join"}, domain.Point{}))
	assert.ErrorIs(t, ws.AddOperator(domain.OperatorPredicate{OperatorID: "x", OperatorType: "Unknown"}, domain.Point{}), domain.ErrInvalidOperator)

	err := ws.AddLink(domain.OperatorLink{
		LinkID: "bad",
		Source: domain.OperatorPort{OperatorID: "scan", PortID: "out0"},
		Target: domain.OperatorPort{OperatorID: "join", PortID: "middle"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidLink)

	require.NoError(t, ws.AddLink(domain.OperatorLink{
		LinkID: "l1",
		Source: domain.OperatorPort{OperatorID: "scan", PortID: "out0"},
		Target: domain.OperatorPort{OperatorID: "join", PortID: "right"},
	}))
	assert.Len(t, ws.Graph().Links, 1)
}
