package storage

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	ecs "github.com/extensivelabs/ecs"
)

type denseComp struct {
	V int
}

var denseCompType = reflect.TypeOf(denseComp{})

func TestDenseStoreCRUD(t *testing.T) {
	strategy := NewDenseStrategy()
	store := strategy.NewStore(denseCompType).(*denseStore)

	alloc := ecs.NewAllocator(0)
	id := alloc.Allocate()

	require.NoError(t, store.Set(id, denseComp{V: 42}))
	require.True(t, store.Has(id))

	got, ok := store.Get(id)
	require.True(t, ok)
	require.Equal(t, 42, got.(denseComp).V)

	called := false
	store.Iterate(func(e ecs.EntityID, v any) bool {
		called = true
		require.Equal(t, id, e)
		require.Equal(t, 42, v.(denseComp).V)
		return true
	})
	require.True(t, called, "expected iterate to visit entity")

	require.True(t, store.Remove(id))
	require.False(t, store.Has(id), "value should be removed")
	require.Equal(t, 0, store.Len())
}

func TestDenseStoreRejectsZeroEntity(t *testing.T) {
	store := NewDenseStrategy().NewStore(denseCompType)
	require.Error(t, store.Set(ecs.EntityID{}, denseComp{V: 10}), "expected error for zero entity")
}
