package ecs_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/extensivelabs/ecs"
)

type health struct {
	HP int
}

func (h health) Combine(other any) any {
	o := other.(health)
	return health{HP: h.HP + o.HP}
}

type halfSplit struct {
	HP int
}

func (h halfSplit) Split() (any, any) {
	return halfSplit{HP: h.HP / 2}, halfSplit{HP: h.HP - h.HP/2}
}

func TestComponentRegistryRegisterIsIdempotent(t *testing.T) {
	reg := ecs.NewComponentRegistry()
	t1 := reflect.TypeOf(health{})

	meta1, err := reg.Register(t1)
	require.NoError(t, err)
	meta2, err := reg.Register(t1)
	require.NoError(t, err)
	require.Equal(t, meta1.ID, meta2.ID, "expected stable id across re-registration")

	got, ok := reg.TypeOf(meta1.ID)
	require.True(t, ok)
	require.Equal(t, t1, got, "expected TypeOf to resolve back to the registered type")
}

func TestComponentRegistryRejectsNonStruct(t *testing.T) {
	reg := ecs.NewComponentRegistry()
	_, err := reg.Register(reflect.TypeOf(42))
	require.Error(t, err, "expected non-struct registration to fail")
}

func TestComponentRegistryStableIDAcrossInstances(t *testing.T) {
	a := ecs.NewComponentRegistry()
	b := ecs.NewComponentRegistry()
	t1 := reflect.TypeOf(health{})

	metaA, err := a.Register(t1)
	require.NoError(t, err)
	metaB, err := b.Register(t1)
	require.NoError(t, err)
	require.Equal(t, metaA.ID, metaB.ID, "expected the same type to derive the same id in independent registries")
}
