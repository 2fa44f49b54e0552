package ecs_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extensivelabs/ecs"
	ecsstorage "github.com/extensivelabs/ecs/ecs/storage"
)

type tag struct {
	Value int
}

func TestCreateEntityCommand(t *testing.T) {
	world := ecs.NewWorld()
	var id ecs.EntityID
	cmd := ecs.NewCreateEntityCommand(&id)
	require.NoError(t, cmd.Apply(world))
	require.False(t, id.IsZero(), "expected id to be populated")
	require.True(t, world.Storage().EntityExists(id), "expected entity to exist")
}

func TestDestroyEntityCommand(t *testing.T) {
	world := ecs.NewWorld()
	id, err := world.Spawn()
	require.NoError(t, err)

	cmd := ecs.NewDestroyEntityCommand(id)
	require.NoError(t, cmd.Apply(world))
	require.False(t, world.Storage().EntityExists(id), "expected entity destroyed")
}

func TestSetRemoveComponentCommands(t *testing.T) {
	world := ecs.NewWorld()
	compType := reflect.TypeOf(tag{})
	require.NoError(t, world.RegisterComponent(compType, ecsstorage.NewDenseStrategy()))

	id, err := world.Spawn()
	require.NoError(t, err)

	set := ecs.NewSetComponentCommand(id, tag{Value: 99})
	require.NoError(t, set.Apply(world))

	value, ok := world.GetCopy(id, compType)
	require.True(t, ok)
	require.Equal(t, 99, value.(tag).Value)

	remove := ecs.NewRemoveComponentCommand(id, compType)
	require.NoError(t, remove.Apply(world))
	require.False(t, world.Storage().Has(id, compType), "component should be removed")
}

func TestDestroyZeroEntityCommandFails(t *testing.T) {
	world := ecs.NewWorld()
	cmd := ecs.NewDestroyEntityCommand(ecs.EntityID{})
	require.Error(t, cmd.Apply(world), "expected error destroying zero entity")
}
