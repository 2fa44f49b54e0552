package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/extensivelabs/ecs"
)

func TestCommandBufferPushDrain(t *testing.T) {
	buf := ecs.NewCommandBuffer()
	assert.Equal(t, 0, buf.Len(), "expected empty buffer")

	cmd := ecs.NewDestroyEntityCommand(ecs.EntityID{})
	buf.Push(cmd)
	assert.Equal(t, 1, buf.Len())

	drained := buf.Drain()
	assert.Len(t, drained, 1, "expected drained commands")
	assert.Equal(t, 0, buf.Len(), "expected buffer reset")
}

func TestCommandBufferPoolReuses(t *testing.T) {
	pool := ecs.NewCommandBufferPool()
	buf := pool.Get()
	buf.Push(ecs.NewDestroyEntityCommand(ecs.EntityID{}))
	pool.Put(buf)

	reused := pool.Get()
	assert.Equal(t, 0, reused.Len(), "expected buffer to be cleared when reused")
}

func TestCommandBufferSnapshotRestore(t *testing.T) {
	buf := ecs.NewCommandBuffer()
	buf.Push(ecs.NewDestroyEntityCommand(ecs.EntityID{}))
	snap := buf.Snapshot()
	buf.Push(ecs.NewCreateEntityCommand(nil))
	assert.Equal(t, 2, buf.Len())

	buf.Restore(snap)
	assert.Equal(t, 1, buf.Len(), "expected len reset to 1")
}
