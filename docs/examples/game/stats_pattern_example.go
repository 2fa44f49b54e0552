package game

import (
	"context"
	"fmt"
	"time"

	"github.com/extensivelabs/ecs"
	ecsstorage "github.com/extensivelabs/ecs/ecs/storage"
)

// ExampleStatsPattern demonstrates the recommended pattern for using shared stats
// components. This pattern separates:
// 1. BaseStats (shared) - immutable archetype stats that multiple entities of the same type share
// 2. CurrentStats (dense) - mutable runtime stats unique to each entity
// 3. StatModifiers (dense) - time-limited buffs/debuffs unique to each entity
//
// This allows you to:
// - Save memory by sharing base stats across entity types
// - Modify individual entity stats without affecting others
// - Apply temporary stat modifiers (buffs/debuffs)
// - Calculate effective stats by combining base + modifiers
func ExampleStatsPattern() {
	world := ecs.NewWorld()

	mustRegister := func(t ecs.ComponentType, strategy ecs.StorageStrategy) {
		if err := world.RegisterComponent(t, strategy); err != nil {
			panic(err)
		}
	}
	mustRegister(baseStatsType, ecsstorage.NewSharedStrategy())
	mustRegister(currentStatsType, ecsstorage.NewDenseStrategy())
	mustRegister(statModifiersType, ecsstorage.NewDenseStrategy())
	mustRegister(positionType, ecsstorage.NewDenseStrategy())

	world.RegisterSystem(HealthSystem{})
	world.RegisterSystem(CombatSystem{})
	world.RegisterSystem(ModifierCleanupSystem{})
	world.RegisterSystem(StatsDisplaySystem{})

	fmt.Println("Creating 100 zombies with shared base stats...")
	var zombieIDs []ecs.EntityID
	for i := 0; i < 100; i++ {
		id, err := world.Spawn(
			ZombieBaseStats,
			CurrentStats{CurrentHealth: ZombieBaseStats.MaxHealth},
			Position{X: float64(i * 10), Y: float64(i % 10)},
		)
		if err != nil {
			panic(err)
		}
		zombieIDs = append(zombieIDs, id)
	}

	fmt.Println("Creating 50 skeletons with shared base stats...")
	for i := 0; i < 50; i++ {
		if _, err := world.Spawn(
			SkeletonBaseStats,
			CurrentStats{CurrentHealth: SkeletonBaseStats.MaxHealth},
			Position{X: float64(i * 15), Y: 100.0},
		); err != nil {
			panic(err)
		}
	}

	fmt.Println("Creating 1 boss with unique base stats...")
	if _, err := world.Spawn(
		BossBaseStats,
		CurrentStats{CurrentHealth: BossBaseStats.MaxHealth},
		Position{X: 500, Y: 500},
	); err != nil {
		panic(err)
	}

	fmt.Println("\nMemory efficiency:")
	fmt.Println("- 151 entities created")
	fmt.Println("- Only 3 unique BaseStats instances in memory (Zombie, Skeleton, Boss)")
	fmt.Println("- 151 unique CurrentStats instances (one per entity)")

	fmt.Println("\n=== Damaging Individual Zombies ===")
	if len(zombieIDs) > 0 {
		current, _ := world.GetCopy(zombieIDs[0], currentStatsType)
		zombieStats := current.(CurrentStats)
		zombieStats.CurrentHealth -= 20
		fmt.Printf("Damaged zombie %v: health -> %d\n", zombieIDs[0], zombieStats.CurrentHealth)
		if err := world.Set(zombieIDs[0], zombieStats); err != nil {
			panic(err)
		}
	}
	if len(zombieIDs) > 1 {
		current, _ := world.GetCopy(zombieIDs[1], currentStatsType)
		fmt.Printf("Zombie %v still at full health: %d\n", zombieIDs[1], current.(CurrentStats).CurrentHealth)
	}

	fmt.Println("\n=== Applying Buff to One Zombie ===")
	if len(zombieIDs) > 0 {
		buffedZombieID := zombieIDs[0]
		strengthBuff := StatModifiers{
			Modifiers: []StatModifier{
				{Type: ModifierTypeAttackMultiplier, Value: 2.0, ExpiresAt: time.Now().Add(30 * time.Second), Source: "strength_potion"},
			},
		}
		if err := world.Set(buffedZombieID, strengthBuff); err != nil {
			panic(err)
		}

		base, _ := world.GetCopy(buffedZombieID, baseStatsType)
		mod, _ := world.GetCopy(buffedZombieID, statModifiersType)
		baseStats := base.(BaseStats)
		mods := mod.(StatModifiers)

		fmt.Printf("Zombie %v received strength buff:\n", buffedZombieID)
		fmt.Printf("  Base attack: %d\n", baseStats.BaseAttackDamage)
		fmt.Printf("  Effective attack (with buff): %d\n", GetEffectiveAttack(baseStats, &mods))
	}

	fmt.Println("\n=== Running Simulation ===")
	for i := 0; i < 3; i++ {
		if err := world.Tick(context.Background(), 16*time.Millisecond); err != nil {
			panic(err)
		}
	}
}

// ExampleUpgradingEntityArchetype demonstrates how to "upgrade" an entity from one
// archetype to another by replacing its BaseStats reference.
func ExampleUpgradingEntityArchetype() {
	world := ecs.NewWorld()
	if err := world.RegisterComponent(baseStatsType, ecsstorage.NewSharedStrategy()); err != nil {
		panic(err)
	}
	if err := world.RegisterComponent(currentStatsType, ecsstorage.NewDenseStrategy()); err != nil {
		panic(err)
	}

	zombieID, err := world.Spawn(ZombieBaseStats, CurrentStats{CurrentHealth: ZombieBaseStats.MaxHealth})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Created zombie with base attack: %d\n", ZombieBaseStats.BaseAttackDamage)

	fmt.Println("\nUpgrading zombie to boss archetype...")
	if err := world.Set(zombieID, BossBaseStats); err != nil {
		panic(err)
	}
	if err := world.Set(zombieID, CurrentStats{CurrentHealth: BossBaseStats.MaxHealth}); err != nil {
		panic(err)
	}

	base, _ := world.GetCopy(zombieID, baseStatsType)
	fmt.Printf("Zombie upgraded! New base attack: %d\n", base.(BaseStats).BaseAttackDamage)
}

// ExampleSharedStatsVsDenseStats compares memory usage between shared and dense storage.
func ExampleSharedStatsVsDenseStats() {
	fmt.Println("=== Memory Comparison: Shared vs Dense Storage ===")

	worldDense := ecs.NewWorld()
	if err := worldDense.RegisterComponent(baseStatsType, ecsstorage.NewDenseStrategy()); err != nil {
		panic(err)
	}
	for i := 0; i < 1000; i++ {
		if _, err := worldDense.Spawn(ZombieBaseStats); err != nil {
			panic(err)
		}
	}
	fmt.Println("Dense Storage:")
	fmt.Println("  Entities: 1000")
	fmt.Println("  BaseStats instances in memory: 1000")

	worldShared := ecs.NewWorld()
	if err := worldShared.RegisterComponent(baseStatsType, ecsstorage.NewSharedStrategy()); err != nil {
		panic(err)
	}
	for i := 0; i < 1000; i++ {
		if _, err := worldShared.Spawn(ZombieBaseStats); err != nil {
			panic(err)
		}
	}
	fmt.Println("\nShared Storage:")
	fmt.Println("  Entities: 1000")
	fmt.Println("  BaseStats instances in memory: 1")
}
