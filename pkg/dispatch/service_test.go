package dispatch_test

import (
	"errors"
	"testing"

	"github.com/aretw0/weave/pkg/dispatch"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func port(op, p string) domain.OperatorPort {
	return domain.OperatorPort{OperatorID: op, PortID: p}
}

func seeded(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	require.NoError(t, s.AddOperator(domain.OperatorPredicate{OperatorID: "op1", OperatorType: "ScanSource"}))
	require.NoError(t, s.AddOperator(domain.OperatorPredicate{OperatorID: "op2", OperatorType: "Sink"}))
	require.NoError(t, s.AddLink(domain.OperatorLink{LinkID: "l1", Source: port("op1", "out0"), Target: port("op2", "in0")}))
	return s
}

func TestService_AddOperator(t *testing.T) {
	store := seeded(t)
	svc := dispatch.New(store.Reader())

	var got []domain.AddOperatorAction
	svc.OnAddOperator(func(a domain.AddOperatorAction) error {
		got = append(got, a)
		return nil
	})

	tests := []struct {
		name    string
		op      domain.OperatorPredicate
		wantErr error
	}{
		{"new operator", domain.OperatorPredicate{OperatorID: "op3", OperatorType: "Filter"}, nil},
		{"duplicate", domain.OperatorPredicate{OperatorID: "op1", OperatorType: "Filter"}, domain.ErrDuplicateID},
		{"missing type", domain.OperatorPredicate{OperatorID: "op4"}, domain.ErrInvalidOperator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AddOperator(tt.op, domain.Point{X: 1, Y: 2})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	require.Len(t, got, 1)
	assert.Equal(t, "op3", got[0].Operator.OperatorID)
	assert.Equal(t, domain.Point{X: 1, Y: 2}, got[0].Point)
	assert.False(t, store.HasOperator("op3"), "dispatch never mutates the graph")
}

func TestService_DeleteOperator(t *testing.T) {
	svc := dispatch.New(seeded(t).Reader())
	var got []string
	svc.OnDeleteOperator(func(a domain.DeleteOperatorAction) error {
		got = append(got, a.OperatorID)
		return nil
	})

	assert.ErrorIs(t, svc.DeleteOperator("ghost"), domain.ErrNotFound)
	require.NoError(t, svc.DeleteOperator("op1"))
	assert.Equal(t, []string{"op1"}, got)
}

func TestService_AddLink(t *testing.T) {
	store := seeded(t)
	require.NoError(t, store.AddOperator(domain.OperatorPredicate{OperatorID: "op3", OperatorType: "Sink"}))
	svc := dispatch.New(store.Reader())

	var got []domain.OperatorLink
	svc.OnAddLink(func(a domain.AddLinkAction) error {
		got = append(got, a.Link)
		return nil
	})

	tests := []struct {
		name    string
		link    domain.OperatorLink
		wantErr error
	}{
		{"valid", domain.OperatorLink{LinkID: "l2", Source: port("op1", "out0"), Target: port("op3", "in0")}, nil},
		{"missing operator", domain.OperatorLink{LinkID: "l3", Source: port("op1", "out0"), Target: port("ghost", "in0")}, domain.ErrNotFound},
		{"duplicate pair", domain.OperatorLink{LinkID: "l4", Source: port("op1", "out0"), Target: port("op2", "in0")}, domain.ErrDuplicateLink},
		{"duplicate id", domain.OperatorLink{LinkID: "l1", Source: port("op2", "out0"), Target: port("op3", "in0")}, domain.ErrDuplicateID},
		{"empty port", domain.OperatorLink{LinkID: "l5", Source: port("op1", ""), Target: port("op3", "in0")}, domain.ErrInvalidLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AddLink(tt.link)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	require.Len(t, got, 1)
	assert.Equal(t, "l2", got[0].LinkID)
	assert.Len(t, store.GetLinks(), 1)
}

func TestService_DeleteLink(t *testing.T) {
	store := seeded(t)
	svc := dispatch.New(store.Reader())
	var got []domain.OperatorLink
	svc.OnDeleteLink(func(a domain.DeleteLinkAction) error {
		got = append(got, a.Link)
		return nil
	})

	err := svc.DeleteLink(domain.OperatorLink{Source: port("op2", "out0"), Target: port("op1", "in0")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, store.GetLinks(), 1)

	require.NoError(t, svc.DeleteLink(domain.OperatorLink{Source: port("op1", "out0"), Target: port("op2", "in0")}))
	assert.Len(t, got, 1)
}

func TestService_SubscriberErrorsReachCaller(t *testing.T) {
	svc := dispatch.New(seeded(t).Reader())
	boom := errors.New("boom")
	svc.OnDeleteOperator(func(domain.DeleteOperatorAction) error { return boom })

	assert.ErrorIs(t, svc.DeleteOperator("op1"), boom)
}

func TestService_Unsubscribe(t *testing.T) {
	svc := dispatch.New(seeded(t).Reader())
	calls := 0
	unsubscribe := svc.OnDeleteOperator(func(domain.DeleteOperatorAction) error {
		calls++
		return nil
	})

	require.NoError(t, svc.DeleteOperator("op1"))
	unsubscribe()
	require.NoError(t, svc.DeleteOperator("op1"))
	assert.Equal(t, 1, calls)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) CheckOperator(op domain.OperatorPredicate) error {
	return m.Called(op).Error(0)
}

func (m *mockCatalog) CheckPorts(source domain.OperatorPort, sourceType string, target domain.OperatorPort, targetType string) error {
	return m.Called(source, sourceType, target, targetType).Error(0)
}

func TestService_WithCatalog(t *testing.T) {
	store := seeded(t)
	catalog := new(mockCatalog)
	catalog.On("CheckOperator", mock.MatchedBy(func(op domain.OperatorPredicate) bool {
		return op.OperatorType == "Filter"
	})).Return(domain.ErrInvalidOperator)
	catalog.On("CheckOperator", mock.Anything).Return(nil)
	catalog.On("CheckPorts", port("op1", "out0"), "ScanSource", port("op2", "in1"), "Sink").Return(domain.ErrInvalidLink)
	catalog.On("CheckPorts", port("op1", "out1"), "ScanSource", port("op2", "in0"), "Sink").Return(nil)

	svc := dispatch.New(store.Reader(), dispatch.WithCatalog(catalog))
	published := 0
	svc.OnAddOperator(func(domain.AddOperatorAction) error { published++; return nil })
	svc.OnAddLink(func(domain.AddLinkAction) error { published++; return nil })

	assert.ErrorIs(t, svc.AddOperator(domain.OperatorPredicate{OperatorID: "op3", OperatorType: "Filter"}, domain.Point{}), domain.ErrInvalidOperator)
	assert.NoError(t, svc.AddOperator(domain.OperatorPredicate{OperatorID: "op3", OperatorType: "Sink"}, domain.Point{}))

	assert.ErrorIs(t, svc.AddLink(domain.OperatorLink{LinkID: "l2", Source: port("op1", "out0"), Target: port("op2", "in1")}), domain.ErrInvalidLink)
	assert.NoError(t, svc.AddLink(domain.OperatorLink{LinkID: "l2", Source: port("op1", "out1"), Target: port("op2", "in0")}))

	// Links failing the graph checks never reach the catalog.
	assert.ErrorIs(t, svc.AddLink(domain.OperatorLink{LinkID: "l3", Source: port("op1", "out0"), Target: port("ghost", "in0")}), domain.ErrNotFound)

	assert.Equal(t, 2, published)
	catalog.AssertExpectations(t)
	catalog.AssertNumberOfCalls(t, "CheckPorts", 2)
}
