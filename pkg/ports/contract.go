package ports

import (
	"testing"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGraphStoreContract runs a suite of tests to verify that a GraphStore implementation
// adheres to the defined interface contract. newStore must return an empty store.
func RunGraphStoreContract(t *testing.T, newStore func() GraphStore) {
	op := func(id string) domain.OperatorPredicate {
		return domain.OperatorPredicate{OperatorID: id, OperatorType: "ScanSource"}
	}
	port := func(op, p string) domain.OperatorPort {
		return domain.OperatorPort{OperatorID: op, PortID: p}
	}
	link := func(id, from, to string) domain.OperatorLink {
		return domain.OperatorLink{LinkID: id, Source: port(from, "out0"), Target: port(to, "in0")}
	}

	t.Run("Add and Get Operator", func(t *testing.T) {
		store := newStore()
		want := op("op1")
		want.Properties = map[string]any{"table": "tweets"}

		require.NoError(t, store.AddOperator(want))
		assert.True(t, store.HasOperator("op1"))

		got, err := store.GetOperator("op1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Len(t, store.GetOperators(), 1)
	})

	t.Run("Duplicate Operator", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.AddOperator(op("op1")))

		err := store.AddOperator(op("op1"))
		assert.ErrorIs(t, err, domain.ErrDuplicateID)
		assert.Len(t, store.GetOperators(), 1)
	})

	t.Run("Get Missing Operator", func(t *testing.T) {
		store := newStore()
		_, err := store.GetOperator("ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = store.DeleteOperator("ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Returned Values Are Copies", func(t *testing.T) {
		store := newStore()
		in := op("op1")
		in.Properties = map[string]any{"query": "zika"}
		require.NoError(t, store.AddOperator(in))

		in.Properties["query"] = "changed by caller"
		got, err := store.GetOperator("op1")
		require.NoError(t, err)
		got.Properties["query"] = "changed by reader"

		again, err := store.GetOperator("op1")
		require.NoError(t, err)
		assert.Equal(t, "zika", again.Properties["query"])
	})

	t.Run("Add Link Requires Operators", func(t *testing.T) {
		store := newStore()
		err := store.AddLink(link("l1", "op1", "op2"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, store.GetLinks())

		require.NoError(t, store.AddOperator(op("op1")))
		err = store.AddLink(link("l1", "op1", "op2"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, store.GetLinks())
	})

	t.Run("Add and Query Link", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.AddOperator(op("op1")))
		require.NoError(t, store.AddOperator(op("op2")))
		l := link("l1", "op1", "op2")
		require.NoError(t, store.AddLink(l))

		assert.True(t, store.HasLinkWithID("l1"))
		assert.True(t, store.HasLink(l.Source, l.Target))
		assert.False(t, store.HasLink(l.Target, l.Source))

		got, err := store.GetLink(l.Source, l.Target)
		require.NoError(t, err)
		assert.Equal(t, l, got)

		got, err = store.GetLinkWithID("l1")
		require.NoError(t, err)
		assert.Equal(t, l, got)

		assert.Equal(t, []domain.OperatorLink{l}, store.GetLinks())
		assert.Equal(t, []domain.OperatorLink{l}, store.LinksOf("op2"))
		assert.Empty(t, store.LinksOf("op3"))

		_, err = store.GetLink(l.Target, l.Source)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Duplicate Link Pair", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.AddOperator(op("op1")))
		require.NoError(t, store.AddOperator(op("op2")))
		require.NoError(t, store.AddLink(link("l1", "op1", "op2")))

		err := store.AddLink(link("l2", "op1", "op2"))
		assert.ErrorIs(t, err, domain.ErrDuplicateLink)
		assert.Len(t, store.GetLinks(), 1)
	})

	t.Run("Duplicate Link ID", func(t *testing.T) {
		store := newStore()
		for _, id := range []string{"op1", "op2", "op3"} {
			require.NoError(t, store.AddOperator(op(id)))
		}
		require.NoError(t, store.AddLink(link("l1", "op1", "op2")))

		err := store.AddLink(link("l1", "op1", "op3"))
		assert.ErrorIs(t, err, domain.ErrDuplicateID)
		assert.Len(t, store.GetLinks(), 1)
	})

	t.Run("Delete Link", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.AddOperator(op("op1")))
		require.NoError(t, store.AddOperator(op("op2")))
		l := link("l1", "op1", "op2")
		require.NoError(t, store.AddLink(l))

		removed, err := store.DeleteLink(l.Source, l.Target)
		require.NoError(t, err)
		assert.Equal(t, l, removed)
		assert.False(t, store.HasLinkWithID("l1"))

		_, err = store.DeleteLink(l.Source, l.Target)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Len(t, store.GetOperators(), 2, "store unchanged by a failed delete")
	})

	t.Run("Delete Link With ID", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.AddOperator(op("op1")))
		require.NoError(t, store.AddOperator(op("op2")))
		l := link("l1", "op1", "op2")
		require.NoError(t, store.AddLink(l))

		removed, err := store.DeleteLinkWithID("l1")
		require.NoError(t, err)
		assert.Equal(t, l, removed)
		assert.False(t, store.HasLink(l.Source, l.Target))

		_, err = store.DeleteLinkWithID("l1")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		// The pair is free again.
		require.NoError(t, store.AddLink(link("l2", "op1", "op2")))
	})

	t.Run("Delete Operator With Links", func(t *testing.T) {
		store := newStore()
		require.NoError(t, store.AddOperator(op("op1")))
		require.NoError(t, store.AddOperator(op("op2")))
		require.NoError(t, store.AddLink(link("l1", "op1", "op2")))

		_, err := store.DeleteOperator("op1")
		assert.ErrorIs(t, err, domain.ErrDanglingReference)
		assert.True(t, store.HasOperator("op1"))

		_, err = store.DeleteLinkWithID("l1")
		require.NoError(t, err)

		removed, err := store.DeleteOperator("op1")
		require.NoError(t, err)
		assert.Equal(t, "op1", removed.OperatorID)
		assert.False(t, store.HasOperator("op1"))
	})
}
