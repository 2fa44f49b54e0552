package ecs

import "fmt"

// Command is a deferred mutation applied outside of system execution, e.g.
// from a CLI driver or a test harness seeding initial state.
type Command interface {
	Apply(world *World) error
}

// NewCreateEntityCommand enqueues a new entity's creation with the given
// initial components. If target is non-nil it receives the allocated ID.
func NewCreateEntityCommand(target *EntityID, components ...any) Command {
	return createEntityCommand{target: target, components: components}
}

// NewDestroyEntityCommand enqueues an entity deletion.
func NewDestroyEntityCommand(id EntityID) Command {
	return destroyEntityCommand{entity: id}
}

// NewSetComponentCommand enqueues a component write (insert or overwrite).
func NewSetComponentCommand(id EntityID, value any) Command {
	return setComponentCommand{entity: id, value: value}
}

// NewRemoveComponentCommand enqueues a component removal.
func NewRemoveComponentCommand(id EntityID, component ComponentType) Command {
	return removeComponentCommand{entity: id, component: component}
}

type createEntityCommand struct {
	target     *EntityID
	components []any
}

type destroyEntityCommand struct {
	entity EntityID
}

type setComponentCommand struct {
	entity EntityID
	value  any
}

type removeComponentCommand struct {
	entity    EntityID
	component ComponentType
}

func (c createEntityCommand) Apply(world *World) error {
	id, err := world.Spawn(c.components...)
	if err != nil {
		return err
	}
	if c.target != nil {
		*c.target = id
	}
	return nil
}

func (c destroyEntityCommand) Apply(world *World) error {
	if c.entity.IsZero() {
		return fmt.Errorf("ecs: destroy zero entity")
	}
	return world.Destroy(c.entity)
}

func (c setComponentCommand) Apply(world *World) error {
	if c.entity.IsZero() {
		return fmt.Errorf("ecs: set component on zero entity")
	}
	return world.Set(c.entity, c.value)
}

func (c removeComponentCommand) Apply(world *World) error {
	if c.entity.IsZero() {
		return fmt.Errorf("ecs: remove component from zero entity")
	}
	world.storage.Remove(c.entity, c.component)
	return nil
}

var (
	_ Command = createEntityCommand{}
	_ Command = destroyEntityCommand{}
	_ Command = setComponentCommand{}
	_ Command = removeComponentCommand{}
)
