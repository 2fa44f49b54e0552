package storage

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ecs "github.com/extensivelabs/ecs"
)

type GameStats struct {
	Health       int
	AttackDamage int
	Defense      int
}

var statsType = reflect.TypeOf(GameStats{})

func TestSharedStorage_BasicOperations(t *testing.T) {
	strategy := NewSharedStrategy()
	store := strategy.NewStore(statsType)

	assert.Equal(t, statsType, store.ComponentType())

	entity1 := ecs.EntityID{Index: uint32(1), Generation: 1}
	entity2 := ecs.EntityID{Index: uint32(2), Generation: 1}

	stats := GameStats{Health: 100, AttackDamage: 25, Defense: 10}

	// Add same stats to both entities
	require.NoError(t, store.Set(entity1, stats))
	require.NoError(t, store.Set(entity2, stats))

	// Both entities should have the component
	assert.True(t, store.Has(entity1), "entity1 should have component")
	assert.True(t, store.Has(entity2), "entity2 should have component")

	// Verify values
	val1, ok := store.Get(entity1)
	require.True(t, ok, "entity1 component not found")
	assert.Equal(t, 100, val1.(GameStats).Health)

	val2, ok := store.Get(entity2)
	require.True(t, ok, "entity2 component not found")
	assert.Equal(t, 25, val2.(GameStats).AttackDamage)
}

func TestSharedStorage_ValueSharing(t *testing.T) {
	strategy := NewSharedStrategy()
	store := strategy.NewStore(statsType).(*sharedStore)

	entity1 := ecs.EntityID{Index: uint32(1), Generation: 1}
	entity2 := ecs.EntityID{Index: uint32(2), Generation: 1}
	entity3 := ecs.EntityID{Index: uint32(3), Generation: 1}

	zombieStats := GameStats{Health: 50, AttackDamage: 10, Defense: 5}
	playerStats := GameStats{Health: 100, AttackDamage: 25, Defense: 15}

	// Two zombies with same stats
	store.Set(entity1, zombieStats)
	store.Set(entity2, zombieStats)

	// One player with different stats
	store.Set(entity3, playerStats)

	// Check that zombies share the same value instance
	stats := store.Stats()
	assert.Equal(t, 3, stats.EntityCount)
	assert.Equal(t, 2, stats.UniqueValueCount)

	// Sharing ratio should be 1.5 (3 entities / 2 unique values)
	assert.Equal(t, 1.5, stats.SharingRatio)
}

func TestSharedStorage_RemoveDecrementsRefCount(t *testing.T) {
	strategy := NewSharedStrategy()
	store := strategy.NewStore(statsType).(*sharedStore)

	entity1 := ecs.EntityID{Index: uint32(1), Generation: 1}
	entity2 := ecs.EntityID{Index: uint32(2), Generation: 1}

	stats := GameStats{Health: 50, AttackDamage: 10, Defense: 5}

	// Both entities share the same stats
	store.Set(entity1, stats)
	store.Set(entity2, stats)

	// Should have 1 unique value with refcount 2
	require.Len(t, store.valueToData, 1)

	// Get the value ID
	var valueID uint32
	for id := range store.valueToData {
		valueID = id
		break
	}

	// Check ref count
	assert.Equal(t, 2, store.valueToData[valueID].refCount)

	// Remove from entity1
	assert.True(t, store.Remove(entity1), "failed to remove component from entity1")

	// Ref count should decrease to 1
	assert.Equal(t, 1, store.valueToData[valueID].refCount, "expected refcount 1 after removal")

	// Remove from entity2
	store.Remove(entity2)

	// Value should be completely removed now
	assert.Len(t, store.valueToData, 0, "expected 0 unique values after all removals")
}

func TestSharedStorage_UpdateValue(t *testing.T) {
	strategy := NewSharedStrategy()
	store := strategy.NewStore(statsType).(*sharedStore)

	entity1 := ecs.EntityID{Index: uint32(1), Generation: 1}

	stats1 := GameStats{Health: 50, AttackDamage: 10, Defense: 5}
	stats2 := GameStats{Health: 100, AttackDamage: 20, Defense: 10}

	// Set initial value
	store.Set(entity1, stats1)
	require.Len(t, store.valueToData, 1)

	// Update to new value
	store.Set(entity1, stats2)

	// Should still have 1 unique value (old one was garbage collected)
	assert.Len(t, store.valueToData, 1, "expected 1 unique value after update")

	// Verify new value
	val, ok := store.Get(entity1)
	require.True(t, ok, "component not found after update")
	assert.Equal(t, 100, val.(GameStats).Health)
}

func TestSharedStorage_Iterate(t *testing.T) {
	strategy := NewSharedStrategy()
	store := strategy.NewStore(statsType)

	entity1 := ecs.EntityID{Index: uint32(1), Generation: 1}
	entity2 := ecs.EntityID{Index: uint32(2), Generation: 1}
	entity3 := ecs.EntityID{Index: uint32(3), Generation: 1}

	stats := GameStats{Health: 50, AttackDamage: 10, Defense: 5}

	store.Set(entity1, stats)
	store.Set(entity2, stats)
	store.Set(entity3, stats)

	// Iterate and count
	count := 0
	store.Iterate(func(id ecs.EntityID, component any) bool {
		count++
		s := component.(GameStats)
		assert.Equal(t, 50, s.Health)
		return true
	})

	assert.Equal(t, 3, count, "expected to iterate over 3 entities")
}

func TestSharedStorage_IterateEarlyExit(t *testing.T) {
	strategy := NewSharedStrategy()
	store := strategy.NewStore(statsType)

	entity1 := ecs.EntityID{Index: uint32(1), Generation: 1}
	entity2 := ecs.EntityID{Index: uint32(2), Generation: 1}
	entity3 := ecs.EntityID{Index: uint32(3), Generation: 1}

	stats := GameStats{Health: 50, AttackDamage: 10, Defense: 5}

	store.Set(entity1, stats)
	store.Set(entity2, stats)
	store.Set(entity3, stats)

	// Iterate but stop after 2
	count := 0
	store.Iterate(func(id ecs.EntityID, component any) bool {
		count++
		return count < 2
	})

	assert.Equal(t, 2, count, "expected iteration to stop at 2")
}

func TestSharedStorage_Clear(t *testing.T) {
	strategy := NewSharedStrategy()
	store := strategy.NewStore(statsType)

	entity1 := ecs.EntityID{Index: uint32(1), Generation: 1}
	entity2 := ecs.EntityID{Index: uint32(2), Generation: 1}

	stats := GameStats{Health: 50, AttackDamage: 10, Defense: 5}

	store.Set(entity1, stats)
	store.Set(entity2, stats)

	require.Equal(t, 2, store.Len())

	store.Clear()

	assert.Equal(t, 0, store.Len(), "expected length 0 after clear")
	assert.False(t, store.Has(entity1), "entity1 should not have component after clear")
}

func TestSharedStorage_ZeroEntity(t *testing.T) {
	strategy := NewSharedStrategy()
	store := strategy.NewStore(statsType)

	zeroEntity := ecs.EntityID{}
	stats := GameStats{Health: 50, AttackDamage: 10, Defense: 5}

	assert.Error(t, store.Set(zeroEntity, stats), "expected error when setting zero entity")
}

func TestSharedStorage_MemoryEfficiency(t *testing.T) {
	strategy := NewSharedStrategy()
	store := strategy.NewStore(statsType).(*sharedStore)

	// Create 1000 entities with the same stats
	commonStats := GameStats{Health: 50, AttackDamage: 10, Defense: 5}

	for i := 0; i < 1000; i++ {
		entity := ecs.EntityID{Index: uint32(i + 1), Generation: 1}
		store.Set(entity, commonStats)
	}

	// Should only have 1 unique value despite 1000 entities
	stats := store.Stats()
	assert.Equal(t, 1000, stats.EntityCount)
	assert.Equal(t, 1, stats.UniqueValueCount)
	assert.Equal(t, 1000.0, stats.SharingRatio)

	// Now add some entities with different stats
	rareStats1 := GameStats{Health: 100, AttackDamage: 25, Defense: 15}
	rareStats2 := GameStats{Health: 75, AttackDamage: 15, Defense: 10}

	store.Set(ecs.EntityID{Index: uint32(1001), Generation: 1}, rareStats1)
	store.Set(ecs.EntityID{Index: uint32(1002), Generation: 1}, rareStats2)

	stats = store.Stats()
	assert.Equal(t, 3, stats.UniqueValueCount)
}

func TestSharedStorage_DifferentStructs(t *testing.T) {
	strategy := NewSharedStrategy()
	store := strategy.NewStore(statsType).(*sharedStore)

	entity1 := ecs.EntityID{Index: uint32(1), Generation: 1}
	entity2 := ecs.EntityID{Index: uint32(2), Generation: 1}

	// Two stats with same values should be deduplicated
	stats1 := GameStats{Health: 50, AttackDamage: 10, Defense: 5}
	stats2 := GameStats{Health: 50, AttackDamage: 10, Defense: 5}

	store.Set(entity1, stats1)
	store.Set(entity2, stats2)

	// Should share the same underlying value
	assert.Len(t, store.valueToData, 1, "expected 1 unique value for identical structs")
}
