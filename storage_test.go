package ecs_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extensivelabs/ecs"
	ecsstorage "github.com/extensivelabs/ecs/ecs/storage"
)

type carried struct{ N int }

func newLocalStorage(t *testing.T) (*ecs.LocalStorage, reflect.Type) {
	t.Helper()
	registry := ecs.NewComponentRegistry()
	storage := ecs.NewLocalStorage(ecs.NewAllocator(0), registry)
	carriedType := reflect.TypeOf(carried{})
	require.NoError(t, storage.RegisterComponent(carriedType, ecsstorage.NewDenseStrategy()))
	return storage, carriedType
}

func TestLocalStorageCRUD(t *testing.T) {
	storage, carriedType := newLocalStorage(t)
	id := storage.CreateEntity()

	require.NoError(t, storage.Set(id, carried{N: 1}))
	require.True(t, storage.Has(id, carriedType))
	v, ok := storage.Get(id, carriedType)
	require.True(t, ok)
	require.Equal(t, 1, v.(carried).N)

	require.True(t, storage.Remove(id, carriedType), "expected remove to succeed")
	require.False(t, storage.Has(id, carriedType), "expected component gone after remove")
}

func TestLocalStorageGetReturnsDeepCopy(t *testing.T) {
	storage, carriedType := newLocalStorage(t)
	id := storage.CreateEntity()
	require.NoError(t, storage.Set(id, carried{N: 1}))

	got, ok := storage.Get(id, carriedType)
	require.True(t, ok, "expected component to be present")
	mutated := got.(carried)
	mutated.N = 999

	again, _ := storage.Get(id, carriedType)
	require.Equal(t, 1, again.(carried).N, "expected Get to return an independent copy")
}

func TestLocalStorageDestroyEntityClearsComponentsAndAliveness(t *testing.T) {
	storage, carriedType := newLocalStorage(t)
	id := storage.CreateEntity()
	require.NoError(t, storage.Set(id, carried{N: 1}))

	require.NoError(t, storage.DestroyEntity(id))
	require.False(t, storage.EntityExists(id), "expected entity to no longer exist")
	require.False(t, storage.Has(id, carriedType), "expected components purged on destroy")
}

func TestLocalStorageIterReturnsMatchingRows(t *testing.T) {
	storage, carriedType := newLocalStorage(t)
	a := storage.CreateEntity()
	b := storage.CreateEntity()
	require.NoError(t, storage.Set(a, carried{N: 1}), "set a")
	require.NoError(t, storage.Set(b, carried{N: 2}), "set b")

	rows := storage.Iter([]ecs.ComponentType{carriedType})
	require.Len(t, rows, 2)

	seen := map[int]bool{}
	for _, row := range rows {
		seen[row.Components[0].(carried).N] = true
	}
	require.True(t, seen[1] && seen[2], "expected rows for both entities")
}

func TestLocalStorageApplyUpdatesAppliesAllKinds(t *testing.T) {
	storage, carriedType := newLocalStorage(t)
	a := storage.CreateEntity()
	b := storage.CreateEntity()
	require.NoError(t, storage.Set(a, carried{N: 1}), "set a")

	updates := map[ecs.EntityID]map[ecs.ComponentType]any{a: {carriedType: carried{N: 5}}}
	inserts := map[ecs.EntityID][]any{b: {carried{N: 9}}}

	_, err := storage.ApplyUpdates(updates, inserts, nil, nil)
	require.NoError(t, err)

	got, _ := storage.Get(a, carriedType)
	require.Equal(t, 5, got.(carried).N, "expected update applied")
	got, _ = storage.Get(b, carriedType)
	require.Equal(t, 9, got.(carried).N, "expected insert applied")

	_, err = storage.ApplyUpdates(nil, nil, nil, []ecs.EntityID{b})
	require.NoError(t, err, "apply destroys")
	require.False(t, storage.EntityExists(b), "expected entity destroyed by ApplyUpdates")
}

func TestLocalStorageSnapshotRestoreRoundTrip(t *testing.T) {
	storage, carriedType := newLocalStorage(t)
	id := storage.CreateEntity()
	require.NoError(t, storage.Set(id, carried{N: 42}))

	data, err := storage.Snapshot()
	require.NoError(t, err)

	require.NoError(t, storage.Set(id, carried{N: 0}), "mutate before restore")
	require.NoError(t, storage.Restore(data))

	got, ok := storage.Get(id, carriedType)
	require.True(t, ok)
	require.Equal(t, 42, got.(carried).N, "expected restored value 42")
}

func TestLocalStorageAsyncVariantsDelegateSynchronously(t *testing.T) {
	storage, carriedType := newLocalStorage(t)
	id := storage.CreateEntity()
	require.NoError(t, storage.Set(id, carried{N: 3}))

	ctx := context.Background()
	v, ok, err := storage.GetAsync(ctx, id, carriedType)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, v.(carried).N)

	rows, err := storage.IterAsync(ctx, []ecs.ComponentType{carriedType})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestLocalStorageRegisterComponentRejectsDuplicate(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	storage := ecs.NewLocalStorage(ecs.NewAllocator(0), registry)
	carriedType := reflect.TypeOf(carried{})

	require.NoError(t, storage.RegisterComponent(carriedType, ecsstorage.NewDenseStrategy()), "first register")
	require.Error(t, storage.RegisterComponent(carriedType, ecsstorage.NewDenseStrategy()), "expected duplicate registration to fail")
}
