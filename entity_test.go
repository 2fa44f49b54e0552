package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extensivelabs/ecs"
)

func TestAllocatorAllocateAndDeallocate(t *testing.T) {
	alloc := ecs.NewAllocator(0)
	a := alloc.Allocate()
	b := alloc.Allocate()

	require.NotEqual(t, a, b, "expected unique entities")
	require.True(t, alloc.IsAlive(a))
	require.True(t, alloc.IsAlive(b))

	require.NoError(t, alloc.Deallocate(a))
	require.False(t, alloc.IsAlive(a), "entity should be destroyed")

	// Recycled entity should reuse the index with a bumped generation.
	c := alloc.Allocate()
	require.Equal(t, a.Index, c.Index, "expected recycled index")
	require.NotEqual(t, a.Generation, c.Generation, "expected generation to increment on recycle")
}

func TestAllocatorDeallocateStaleIdIsNoop(t *testing.T) {
	alloc := ecs.NewAllocator(0)
	id := alloc.Allocate()
	require.NoError(t, alloc.Deallocate(id))
	require.NoError(t, alloc.Deallocate(id), "deallocate of stale id should be a no-op")
	require.False(t, alloc.IsAlive(id), "stale id should not be alive")
}

func TestAllocatorRejectsForeignShard(t *testing.T) {
	alloc := ecs.NewAllocator(1)
	foreign := ecs.EntityID{Shard: 0, Index: 5, Generation: 0}
	require.Error(t, alloc.Deallocate(foreign), "expected shard mismatch error")
	require.False(t, alloc.IsAlive(foreign), "foreign-shard entity should never be alive locally")
}

func TestAllocatorSkipsReservedRange(t *testing.T) {
	alloc := ecs.NewAllocator(0)
	id := alloc.Allocate()
	require.GreaterOrEqual(t, id.Index, uint32(ecs.ReservedEntityCount), "expected allocator to skip reserved range")
}

func TestEntityIDProvisional(t *testing.T) {
	real := ecs.EntityID{Index: 42}
	require.False(t, real.IsProvisional(), "expected a normal index not to be provisional")
}
