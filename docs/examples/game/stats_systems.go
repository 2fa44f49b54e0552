package game

import (
	"context"
	"reflect"
	"time"

	"github.com/extensivelabs/ecs"
)

var (
	baseStatsType     = reflect.TypeOf(BaseStats{})
	currentStatsType  = reflect.TypeOf(CurrentStats{})
	statModifiersType = reflect.TypeOf(StatModifiers{})
	positionType      = reflect.TypeOf(Position{})
)

// HealthSystem manages entity health, death, and regeneration. It reads
// BaseStats (shared) and StatModifiers, and writes CurrentStats (dense).
type HealthSystem struct{}

func (HealthSystem) Descriptor() ecs.SystemDescriptor {
	return ecs.NewSystemDescriptor("health",
		ecs.WithReads(ecs.Types(baseStatsType, statModifiersType, currentStatsType)),
		ecs.WithWrites(ecs.Types(currentStatsType)),
	)
}

func (HealthSystem) Run(ctx context.Context, access *ecs.ScopedAccess) (ecs.SystemReturn, error) {
	rows, err := access.Query(ecs.Query{}.Having(currentStatsType))
	if err != nil {
		return nil, err
	}

	result := ecs.NewSystemResult()
	for _, row := range rows {
		current := row.Components[0].(CurrentStats)
		if current.IsDead {
			continue
		}

		baseVal, hasBase, err := access.Get(row.Entity, baseStatsType)
		if err != nil {
			return nil, err
		}
		if !hasBase {
			continue
		}
		base := baseVal.(BaseStats)

		var mods *StatModifiers
		if modVal, hasMods, err := access.Get(row.Entity, statModifiersType); err != nil {
			return nil, err
		} else if hasMods {
			m := modVal.(StatModifiers)
			mods = &m
		}

		if mods != nil {
			for _, mod := range mods.Modifiers {
				if mod.Type == ModifierTypeHealthRegen {
					current.CurrentHealth += int(mod.Value)
					if current.CurrentHealth > base.MaxHealth {
						current.CurrentHealth = base.MaxHealth
					}
				}
			}
		}

		if current.CurrentHealth <= 0 {
			current.IsDead = true
			current.CurrentHealth = 0
		}

		if err := result.RecordUpdate(row.Entity, current); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// CombatSystem resolves melee damage between entities within attack range,
// reading BaseStats, StatModifiers, CurrentStats and Position, writing CurrentStats.
type CombatSystem struct{}

func (CombatSystem) Descriptor() ecs.SystemDescriptor {
	return ecs.NewSystemDescriptor("combat",
		ecs.WithReads(ecs.Types(baseStatsType, statModifiersType, currentStatsType, positionType)),
		ecs.WithWrites(ecs.Types(currentStatsType)),
	)
}

func (CombatSystem) Run(ctx context.Context, access *ecs.ScopedAccess) (ecs.SystemReturn, error) {
	rows, err := access.Query(ecs.Query{}.Having(currentStatsType, baseStatsType, positionType))
	if err != nil {
		return nil, err
	}

	type fighter struct {
		id   ecs.EntityID
		base BaseStats
		mods *StatModifiers
		pos  Position
	}

	fighters := make([]fighter, 0, len(rows))
	for _, row := range rows {
		current := row.Components[0].(CurrentStats)
		if current.IsDead {
			continue
		}
		f := fighter{
			id:   row.Entity,
			base: row.Components[1].(BaseStats),
			pos:  row.Components[2].(Position),
		}
		if modVal, hasMods, err := access.Get(row.Entity, statModifiersType); err != nil {
			return nil, err
		} else if hasMods {
			m := modVal.(StatModifiers)
			f.mods = &m
		}
		fighters = append(fighters, f)
	}

	const attackRangeSq = 100.0
	result := ecs.NewSystemResult()
	for i, attacker := range fighters {
		for j, target := range fighters {
			if i == j {
				continue
			}
			dx := attacker.pos.X - target.pos.X
			dy := attacker.pos.Y - target.pos.Y
			if dx*dx+dy*dy > attackRangeSq {
				continue
			}

			targetVal, ok, err := access.Get(target.id, currentStatsType)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			targetCurrent := targetVal.(CurrentStats)
			if targetCurrent.IsDead {
				continue
			}

			damage := GetEffectiveAttack(attacker.base, attacker.mods) - GetEffectiveDefense(target.base, target.mods)
			if damage < 1 {
				damage = 1
			}
			targetCurrent.CurrentHealth -= damage

			if err := result.RecordUpdate(target.id, targetCurrent); err != nil {
				return nil, err
			}
			break // one target per attacker per tick
		}
	}
	return result, nil
}

// ModifierCleanupSystem removes expired stat modifiers.
type ModifierCleanupSystem struct{}

func (ModifierCleanupSystem) Descriptor() ecs.SystemDescriptor {
	return ecs.NewSystemDescriptor("modifier_cleanup",
		ecs.WithReads(ecs.Types(statModifiersType)),
		ecs.WithWrites(ecs.Types(statModifiersType)),
		ecs.WithAsync(),
	)
}

func (ModifierCleanupSystem) Run(ctx context.Context, access *ecs.ScopedAccess) (ecs.SystemReturn, error) {
	rows, err := access.Query(ecs.Query{}.Having(statModifiersType))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := ecs.NewSystemResult()
	for _, row := range rows {
		mods := row.Components[0].(StatModifiers)
		if mods.RemoveExpired(now) {
			if err := result.RecordUpdate(row.Entity, mods); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// StatsDisplaySystem is a readonly pass that queries every entity's
// CurrentStats and BaseStats and does nothing further with them; it writes
// nothing and exists purely to exercise a read-only system definition
// alongside the mutating ones above.
type StatsDisplaySystem struct{}

func (StatsDisplaySystem) Descriptor() ecs.SystemDescriptor {
	return ecs.NewSystemDescriptor("stats_display",
		ecs.ReadOnly(),
		ecs.WithReads(ecs.Types(baseStatsType, currentStatsType, statModifiersType)),
	)
}

func (StatsDisplaySystem) Run(ctx context.Context, access *ecs.ScopedAccess) (ecs.SystemReturn, error) {
	rows, err := access.Query(ecs.Query{}.Having(currentStatsType, baseStatsType))
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		_ = row.Components[0].(CurrentStats)
		_ = row.Components[1].(BaseStats)
	}
	return nil, nil
}
