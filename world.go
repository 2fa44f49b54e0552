package ecs

import (
	"context"
	"time"
)

// World owns entity/component storage, the component registry, shared
// resources, and the systems registered against it. It is the only type a
// caller constructs directly; everything else (ScopedAccess, SystemResult)
// is produced on its behalf during a tick.
type World struct {
	registry    *ComponentRegistry
	storage     Storage
	resources   ResourceContainer
	worldEntity EntityID
	clockEntity EntityID

	systems       []System
	schedulerOpts []SchedulerOption
	scheduler     *Scheduler
	dirty         bool
}

// WorldOption configures a World at construction.
type WorldOption func(*World)

// WithStorage overrides the default LocalStorage backend. The given storage
// must not yet have the reserved singleton entities installed; NewWorld
// installs them.
func WithStorage(storage Storage) WorldOption {
	return func(w *World) {
		if storage != nil {
			w.storage = storage
		}
	}
}

// WithResourceContainer overrides the default resource container.
func WithResourceContainer(container ResourceContainer) WorldOption {
	return func(w *World) {
		if container != nil {
			w.resources = container
		}
	}
}

// WithSchedulerOptions forwards options to the Scheduler built lazily on
// first Tick (and rebuilt whenever RegisterSystem changes the system set).
func WithSchedulerOptions(opts ...SchedulerOption) WorldOption {
	return func(w *World) {
		w.schedulerOpts = append(w.schedulerOpts, opts...)
	}
}

// NewWorld constructs a world with default registries and providers, then
// installs the reserved WORLD and CLOCK singleton entities.
func NewWorld(opts ...WorldOption) *World {
	registry := NewComponentRegistry()
	w := &World{
		registry:  registry,
		storage:   NewLocalStorage(NewAllocator(0), registry),
		resources: newResourceContainer(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.worldEntity = w.storage.ReserveEntity(WorldEntityIndex)
	w.clockEntity = w.storage.ReserveEntity(ClockEntityIndex)
	return w
}

// Registry exposes the backing component registry.
func (w *World) Registry() *ComponentRegistry { return w.registry }

// Storage returns the storage backend used by the world.
func (w *World) Storage() Storage { return w.storage }

// Resources exposes the shared resource container.
func (w *World) Resources() ResourceContainer { return w.resources }

// WorldEntity returns the reserved singleton entity components are attached
// to via Singleton/UpdateSingleton.
func (w *World) WorldEntity() EntityID { return w.worldEntity }

// ClockEntity returns the reserved singleton entity a caller may use to
// track tick/time state, by convention rather than enforcement.
func (w *World) ClockEntity() EntityID { return w.clockEntity }

// RegisterComponent wires a storage strategy in for t.
func (w *World) RegisterComponent(t ComponentType, strategy StorageStrategy) error {
	return w.storage.RegisterComponent(t, strategy)
}

// RegisterSystem adds sys to the world's system set, in call order. Systems
// execute in this registration order within whichever group the default
// plan places them.
func (w *World) RegisterSystem(sys System) {
	w.systems = append(w.systems, sys)
	w.dirty = true
}

// Systems returns the registered systems, in registration order.
func (w *World) Systems() []System {
	return append([]System(nil), w.systems...)
}

func (w *World) ensureScheduler() *Scheduler {
	if w.scheduler == nil || w.dirty {
		w.scheduler = NewScheduler(w, w.systems, w.schedulerOpts...)
		w.dirty = false
	}
	return w.scheduler
}

// Tick runs one full pass over every registered system's default schedule.
func (w *World) Tick(ctx context.Context, dt time.Duration) error {
	return w.ensureScheduler().Tick(ctx, dt)
}

// TickAsync runs Tick in its own goroutine, delivering the result on the
// returned channel.
func (w *World) TickAsync(ctx context.Context, dt time.Duration) <-chan error {
	out := make(chan error, 1)
	go func() {
		out <- w.ensureScheduler().Tick(ctx, dt)
	}()
	return out
}

// Spawn creates a new entity out-of-tick with the given initial components.
func (w *World) Spawn(components ...any) (EntityID, error) {
	id := w.storage.CreateEntity()
	for _, c := range components {
		if err := w.storage.Set(id, c); err != nil {
			_ = w.storage.DestroyEntity(id)
			return EntityID{}, err
		}
	}
	return id, nil
}

// Destroy removes an entity out-of-tick.
func (w *World) Destroy(id EntityID) error {
	return w.storage.DestroyEntity(id)
}

// GetCopy returns a deep copy of id's component of type t, out-of-tick.
func (w *World) GetCopy(id EntityID, t ComponentType) (any, bool) {
	return w.storage.Get(id, t)
}

// Set writes a component directly to storage, out-of-tick.
func (w *World) Set(id EntityID, component any) error {
	return w.storage.Set(id, component)
}

// SingletonCopy returns a deep copy of t off the reserved WORLD entity.
func (w *World) SingletonCopy(t ComponentType) (any, bool) {
	return w.storage.Get(w.worldEntity, t)
}

// SetSingleton writes a component directly onto the reserved WORLD entity.
func (w *World) SetSingleton(component any) error {
	return w.storage.Set(w.worldEntity, component)
}

// QueryCopies runs a committed-state-only query, out-of-tick.
func (w *World) QueryCopies(required ...ComponentType) []QueryRow {
	return w.storage.Iter(required)
}

// Snapshot serializes the world's full storage state.
func (w *World) Snapshot() ([]byte, error) {
	return w.storage.Snapshot()
}

// Restore replaces the world's storage state from a prior Snapshot.
func (w *World) Restore(data []byte) error {
	return w.storage.Restore(data)
}

// ExecuteSystem runs sys once, outside the scheduler's group plan: it
// constructs a fresh ScopedAccess, runs sys, normalizes and merges its
// return value per its declared mode, commits the result, and returns it.
func (w *World) ExecuteSystem(ctx context.Context, sys System) (*SystemResult, error) {
	access := NewScopedAccess(w, sys.Descriptor())
	ret, err := sys.Run(ctx, access)
	if err != nil {
		return nil, err
	}
	result, err := normalizeSystemOutcome(systemOutcome{sys: sys, access: access, ret: ret})
	if err != nil {
		return nil, err
	}
	if err := w.ApplyResult(result); err != nil {
		return nil, err
	}
	return result, nil
}

type entityTypeKey struct {
	Entity EntityID
	Type   ComponentType
}

// ApplyResult commits a SystemResult's op log to storage in recorded order:
// Spawn ops resolve their provisional id to a freshly allocated real entity
// in order encountered; Update/Insert fold into any prior staged write to
// the same (entity, type) via Combinable, or overwrite; Remove discards any
// prior staged write to that pair and removes the component from storage
// at once; Destroy discards every staged write to that entity. Staged
// writes reach storage only after the whole log is folded, and destroys
// after them, so a result that both updates and later removes the same
// pair commits only the remove. An op addressed to a provisional id that
// no earlier Spawn op of the same result produced fails the whole result
// with ErrProvisionalIDPersisted before anything touches storage.
func (w *World) ApplyResult(result *SystemResult) error {
	if result == nil || result.IsEmpty() {
		return nil
	}

	spawned := make(map[EntityID]bool)
	for _, op := range result.Ops() {
		if op.Kind == OpSpawn {
			spawned[op.Entity] = true
		} else if op.Entity.IsProvisional() && !spawned[op.Entity] {
			return ErrProvisionalIDPersisted
		}
	}

	resolved := make(map[EntityID]EntityID)
	pending := make(map[entityTypeKey]any)
	destroyed := make(map[EntityID]bool)

	resolve := func(id EntityID) EntityID {
		if !id.IsProvisional() {
			return id
		}
		if real, ok := resolved[id]; ok {
			return real
		}
		return id
	}

	for _, op := range result.Ops() {
		switch op.Kind {
		case OpSpawn:
			real := w.storage.CreateEntity()
			resolved[op.Entity] = real
			for _, c := range op.Spawned {
				pending[entityTypeKey{Entity: real, Type: componentTypeOf(c)}] = c
			}
		case OpUpdate, OpInsert:
			entity := resolve(op.Entity)
			k := entityTypeKey{Entity: entity, Type: op.Type}
			if destroyed[entity] {
				continue
			}
			if prior, ok := pending[k]; ok {
				pending[k] = combineOrFallback(prior, op.Component)
			} else {
				pending[k] = op.Component
			}
		case OpRemove:
			entity := resolve(op.Entity)
			delete(pending, entityTypeKey{Entity: entity, Type: op.Type})
			w.storage.Remove(entity, op.Type)
		case OpDestroy:
			entity := resolve(op.Entity)
			destroyed[entity] = true
			for k := range pending {
				if k.Entity == entity {
					delete(pending, k)
				}
			}
		}
	}

	for k, v := range pending {
		if destroyed[k.Entity] {
			continue
		}
		if err := w.storage.Set(k.Entity, v); err != nil {
			return err
		}
	}
	for entity := range destroyed {
		if err := w.storage.DestroyEntity(entity); err != nil {
			return err
		}
	}
	return nil
}

// MergeEntities folds x and y's committed (storage) state into one new
// entity, the same algorithm ScopedAccess.MergeEntities applies to a
// buffer-overlaid view: a type present on both is combined via Combinable,
// b (y) winning on fallback; a type present on only one passes through
// unchanged. Both originals are destroyed. Returns ErrEntityMissing if
// either entity does not exist.
func (w *World) MergeEntities(x, y EntityID) (EntityID, error) {
	if !w.storage.EntityExists(x) || !w.storage.EntityExists(y) {
		return EntityID{}, ErrEntityMissing
	}
	merged := make(map[ComponentType]any)
	for _, t := range w.storage.TypesOf(x) {
		if v, ok := w.storage.Get(x, t); ok {
			merged[t] = v
		}
	}
	for _, t := range w.storage.TypesOf(y) {
		v, ok := w.storage.Get(y, t)
		if !ok {
			continue
		}
		if prior, exists := merged[t]; exists {
			merged[t] = combineOrFallback(prior, v)
		} else {
			merged[t] = v
		}
	}

	id := w.storage.CreateEntity()
	for _, v := range merged {
		if err := w.storage.Set(id, v); err != nil {
			return EntityID{}, err
		}
	}
	if err := w.storage.DestroyEntity(x); err != nil {
		return EntityID{}, err
	}
	if err := w.storage.DestroyEntity(y); err != nil {
		return EntityID{}, err
	}
	return id, nil
}

// SplitEntity divides x's committed state into two new entities: a
// Splittable component contributes its two halves, one to each; any other
// component is deep copied onto both. The original is destroyed. Returns
// ErrEntityMissing if x does not exist.
func (w *World) SplitEntity(x EntityID) (EntityID, EntityID, error) {
	if !w.storage.EntityExists(x) {
		return EntityID{}, EntityID{}, ErrEntityMissing
	}
	idA := w.storage.CreateEntity()
	idB := w.storage.CreateEntity()
	for _, t := range w.storage.TypesOf(x) {
		v, ok := w.storage.Get(x, t)
		if !ok {
			continue
		}
		va, vb := splitOrFallback(v)
		if err := w.storage.Set(idA, va); err != nil {
			return EntityID{}, EntityID{}, err
		}
		if err := w.storage.Set(idB, vb); err != nil {
			return EntityID{}, EntityID{}, err
		}
	}
	if err := w.storage.DestroyEntity(x); err != nil {
		return EntityID{}, EntityID{}, err
	}
	return idA, idB, nil
}
