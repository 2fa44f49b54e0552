package game

import (
	"fmt"
	"reflect"

	"github.com/extensivelabs/ecs"
	ecsstorage "github.com/extensivelabs/ecs/ecs/storage"
)

// GameStats represents shared statistics that multiple entities of the same type use.
// IMPORTANT: When using SharedStorage, GameStats are IMMUTABLE from an entity's perspective.
// To "modify" an entity's stats, overwrite its component with a new value (world.Set).
// This automatically "unshares" that entity from others.
//
// RECOMMENDED PATTERN: Use BaseStats (shared) + CurrentStats (dense) pattern instead.
// See stats_pattern_example.go for the recommended approach where:
// - BaseStats (shared): Immutable base values for entity archetypes
// - CurrentStats (dense): Mutable runtime values unique to each entity
// - StatModifiers (dense): Time-limited buffs/debuffs
//
// This example demonstrates the basic shared storage mechanism.
type GameStats struct {
	MaxHealth        int
	AttackDamage     int
	Defense          int
	MoveSpeed        float64
	MiningEfficiency int
}

var gameStatsType = reflect.TypeOf(GameStats{})

// Position is a unique component - each entity has its own position
type Position struct {
	X, Y float64
}

// ExampleSharedStats demonstrates how to set up and use shared component storage.
func ExampleSharedStats() {
	world := ecs.NewWorld()

	// GameStats uses SHARED storage - multiple entities will reference the same data
	if err := world.RegisterComponent(gameStatsType, ecsstorage.NewSharedStrategy()); err != nil {
		panic(err)
	}
	// Position uses DENSE storage - each entity has unique position
	if err := world.RegisterComponent(positionType, ecsstorage.NewDenseStrategy()); err != nil {
		panic(err)
	}

	zombieStats := GameStats{MaxHealth: 50, AttackDamage: 10, Defense: 5, MoveSpeed: 2.0}
	minerStats := GameStats{MaxHealth: 75, AttackDamage: 5, Defense: 8, MoveSpeed: 3.0, MiningEfficiency: 15}
	bossStats := GameStats{MaxHealth: 500, AttackDamage: 50, Defense: 30, MoveSpeed: 1.5}

	// Spawn 100 zombies - they all share the SAME GameStats instance
	for i := 0; i < 100; i++ {
		if _, err := world.Spawn(zombieStats, Position{X: float64(i * 10), Y: float64(i % 10)}); err != nil {
			panic(err)
		}
	}

	// Spawn 50 miners - they all share the SAME GameStats instance
	for i := 0; i < 50; i++ {
		if _, err := world.Spawn(minerStats, Position{X: float64(i * 15), Y: 100.0}); err != nil {
			panic(err)
		}
	}

	// Spawn 1 boss with unique stats
	if _, err := world.Spawn(bossStats, Position{X: 500, Y: 500}); err != nil {
		panic(err)
	}

	fmt.Println("Created 151 entities:")
	fmt.Println("- 100 zombies (sharing 1 GameStats instance)")
	fmt.Println("- 50 miners (sharing 1 GameStats instance)")
	fmt.Println("- 1 boss (unique GameStats instance)")
	fmt.Println("Total unique GameStats instances in memory: 3")
}

// ExampleModifyingSharedStats demonstrates how to "modify" shared stats.
// Since shared values are immutable, the entity's component is overwritten with a new value.
func ExampleModifyingSharedStats() {
	world := ecs.NewWorld()
	if err := world.RegisterComponent(gameStatsType, ecsstorage.NewSharedStrategy()); err != nil {
		panic(err)
	}

	originalStats := GameStats{MaxHealth: 50, AttackDamage: 10, Defense: 5, MoveSpeed: 2.0}
	entityID, err := world.Spawn(originalStats)
	if err != nil {
		panic(err)
	}

	// To "modify" shared stats, overwrite the component value outright.
	// This automatically unshares the entity if others were using the same value.
	upgradedStats := GameStats{MaxHealth: 75, AttackDamage: 15, Defense: 8, MoveSpeed: 2.0}
	if err := world.Set(entityID, upgradedStats); err != nil {
		panic(err)
	}

	fmt.Println("Entity stats upgraded successfully")
}

// ComparisonDenseVsShared demonstrates the memory efficiency of shared storage.
func ComparisonDenseVsShared() {
	// Scenario: 1000 entities, all with identical stats.
	stats := GameStats{MaxHealth: 100, AttackDamage: 25, Defense: 10, MoveSpeed: 3.0}

	worldDense := ecs.NewWorld()
	if err := worldDense.RegisterComponent(gameStatsType, ecsstorage.NewDenseStrategy()); err != nil {
		panic(err)
	}
	for i := 0; i < 1000; i++ {
		if _, err := worldDense.Spawn(stats); err != nil {
			panic(err)
		}
	}
	fmt.Println("Dense Storage: 1000 separate GameStats instances in memory")

	worldShared := ecs.NewWorld()
	if err := worldShared.RegisterComponent(gameStatsType, ecsstorage.NewSharedStrategy()); err != nil {
		panic(err)
	}
	for i := 0; i < 1000; i++ {
		if _, err := worldShared.Spawn(stats); err != nil {
			panic(err)
		}
	}
	fmt.Println("Shared Storage: 1 shared GameStats instance in memory (referenced 1000 times)")
	fmt.Println("Memory savings: ~99.9%")
}

// IMPORTANT NOTES:
//
// 1. SharedStorage vs Dense+Shared Pattern
//
// The examples above use SharedStorage for GameStats where ALL stats (including health)
// are shared. This means if you want to damage one zombie's health, overwriting its
// component "unshares" it from the others.
//
// This works, but it's NOT the recommended pattern for game stats because:
//   - Health changes frequently (on every hit)
//   - Each health change creates a new unique GameStats instance
//   - You lose the memory benefits of sharing
//
// 2. RECOMMENDED PATTERN: BaseStats (shared) + CurrentStats (dense)
//
// A better approach is to split stats into:
//   - BaseStats (shared): Immutable base values for entity archetypes (max health, base attack, etc.)
//   - CurrentStats (dense): Mutable runtime values unique to each entity (current health, is dead, etc.)
//   - StatModifiers (dense): Time-limited buffs/debuffs (strength potion, poison, etc.)
//
// See stats_pattern_example.go for a complete implementation of this pattern.
//
// 3. When to Use Shared Storage
//
// Use SharedStorage when:
//   - Component values are truly immutable (configuration, templates, archetypes)
//   - Many entities share identical values (1000+ zombies, all with same base stats)
//   - Changes are rare (entity type upgrades, archetype switches)
//
// DON'T use SharedStorage when:
//   - Values change frequently (health, position, velocity)
//   - Most entities have unique values
//   - You need mutable per-entity state
