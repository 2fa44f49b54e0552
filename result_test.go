package ecs_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extensivelabs/ecs"
)

type tagComponent struct{ Value int }

func TestSystemResultRecordAndProjections(t *testing.T) {
	r := ecs.NewSystemResult()
	entity := ecs.EntityID{Index: 5, Generation: 1}
	tagType := reflect.TypeOf(tagComponent{})

	require.NoError(t, r.RecordUpdate(entity, tagComponent{Value: 1}))
	require.NoError(t, r.RecordInsert(entity, tagComponent{Value: 2}))
	require.NoError(t, r.RecordRemove(entity, tagType))
	r.RecordDestroy(entity)

	spawnID, warnings := r.RecordSpawn(tagComponent{Value: 3})
	require.Empty(t, warnings, "unexpected warnings for a single unique component")
	require.True(t, spawnID.IsProvisional(), "expected spawn to return a provisional id")

	require.False(t, r.IsEmpty(), "expected a non-empty result")

	updates := r.Updates()
	require.Equal(t, 1, updates[entity][tagType].(tagComponent).Value)

	inserts := r.Inserts()
	require.Len(t, inserts[entity], 1)
	require.Equal(t, 2, inserts[entity][0].(tagComponent).Value)

	removes := r.Removes()
	require.Len(t, removes[entity], 1)
	require.Equal(t, tagType, removes[entity][0])

	destroys := r.Destroys()
	require.Len(t, destroys, 1)
	require.Equal(t, entity, destroys[0])

	spawns := r.Spawns()
	require.Len(t, spawns, 1)
	require.Equal(t, 3, spawns[0][0].(tagComponent).Value)

	ops := r.Ops()
	for i, op := range ops {
		require.Equal(t, i, int(op.Seq), "expected strictly increasing sequence numbers")
	}
}

func TestSystemResultRecordSpawnDuplicateTypeWarns(t *testing.T) {
	r := ecs.NewSystemResult()
	_, warnings := r.RecordSpawn(tagComponent{Value: 1}, tagComponent{Value: 2})
	require.Len(t, warnings, 1, "expected one warning for a duplicate component type")
	spawns := r.Spawns()
	require.Len(t, spawns[0], 1)
	require.Equal(t, 2, spawns[0][0].(tagComponent).Value, "expected the last value to win on duplicate type")
}

func TestSystemResultMergePreservesOrderAndRenumbers(t *testing.T) {
	entity := ecs.EntityID{Index: 1, Generation: 1}

	left := ecs.NewSystemResult()
	_ = left.RecordUpdate(entity, tagComponent{Value: 1})

	right := ecs.NewSystemResult()
	_ = right.RecordUpdate(entity, tagComponent{Value: 2})
	_ = right.RecordUpdate(entity, tagComponent{Value: 3})

	left.Merge(right)

	ops := left.Ops()
	require.Len(t, ops, 3, "expected 3 ops after merge")
	for i, op := range ops {
		require.Equal(t, i, int(op.Seq), "expected renumbered sequence")
	}
	require.Equal(t, 1, ops[0].Component.(tagComponent).Value)
	require.Equal(t, 2, ops[1].Component.(tagComponent).Value)
	require.Equal(t, 3, ops[2].Component.(tagComponent).Value)
}

func TestNormalizeResultShorthandShapes(t *testing.T) {
	entity := ecs.EntityID{Index: 2, Generation: 1}
	tagType := reflect.TypeOf(tagComponent{})

	r, err := ecs.NormalizeResult(nil)
	require.NoError(t, err)
	require.True(t, r.IsEmpty(), "expected nil to normalize to an empty result")

	raw := map[ecs.EntityID]map[ecs.ComponentType]any{
		entity: {tagType: tagComponent{Value: 9}},
	}
	r, err = ecs.NormalizeResult(raw)
	require.NoError(t, err, "normalize nested map")
	require.Equal(t, 9, r.Updates()[entity][tagType].(tagComponent).Value)

	flat := map[ecs.EntityID]any{entity: tagComponent{Value: 4}}
	r, err = ecs.NormalizeResult(flat)
	require.NoError(t, err, "normalize flat map")
	require.Equal(t, 4, r.Updates()[entity][tagType].(tagComponent).Value)

	list := []ecs.EntityComponent{{Entity: entity, Component: tagComponent{Value: 7}}}
	r, err = ecs.NormalizeResult(list)
	require.NoError(t, err, "normalize list")
	require.Equal(t, 7, r.Updates()[entity][tagType].(tagComponent).Value)

	existing := ecs.NewSystemResult()
	_ = existing.RecordUpdate(entity, tagComponent{Value: 1})
	r, err = ecs.NormalizeResult(existing)
	require.NoError(t, err)
	require.Same(t, existing, r, "expected a *SystemResult to pass through unchanged")

	_, err = ecs.NormalizeResult(42)
	require.ErrorIs(t, err, ecs.ErrMalformedReturn, "expected ErrMalformedReturn for an unsupported shape")
}
