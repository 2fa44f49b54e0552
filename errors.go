package ecs

import "errors"

// Sentinel errors, grouped by the taxonomy a tick can surface. All wrap with
// fmt.Errorf("...: %w", ...) at the call site so errors.Is/As keep working
// across the scheduler/world/storage boundary.
var (
	// ErrComponentIdCollision indicates two distinct types derived the same component type ID.
	ErrComponentIdCollision = errors.New("ecs: component type id collision")
	// ErrComponentAlreadyRegistered indicates an attempt to register the same component twice.
	ErrComponentAlreadyRegistered = errors.New("ecs: component already registered")
	// ErrComponentNotRegistered signals lookup on an unknown component type.
	ErrComponentNotRegistered = errors.New("ecs: component not registered")
	// ErrNotAComponentType is returned when registration receives an unsuitable Go type.
	ErrNotAComponentType = errors.New("ecs: not a component type")
	// ErrNilStorageStrategy is returned when storage registration receives a nil strategy.
	ErrNilStorageStrategy = errors.New("ecs: nil storage strategy")
	// ErrNilComponentStore is returned when a strategy produces a nil store.
	ErrNilComponentStore = errors.New("ecs: strategy returned nil store")

	// ErrAccessViolation indicates a system read or wrote a type outside its declared pattern.
	ErrAccessViolation = errors.New("ecs: access violation")
	// ErrEntityMissing indicates a get/merge/split targeted a non-existent or destroyed entity.
	ErrEntityMissing = errors.New("ecs: entity missing")
	// ErrMalformedReturn indicates a system returned an unrecognized shorthand value.
	ErrMalformedReturn = errors.New("ecs: malformed system return value")
	// ErrShardMismatch indicates an operation targeted an entity from a foreign shard.
	ErrShardMismatch = errors.New("ecs: shard mismatch")
	// ErrTickFailure indicates a tick aborted after retries were exhausted.
	ErrTickFailure = errors.New("ecs: tick failed")
	// ErrConflict indicates two systems in one group wrote the same (entity, type) pair
	// while the scheduler's strict-merge mode was enabled.
	ErrConflict = errors.New("ecs: conflicting write in group")

	// ErrWorkerPoolClosed indicates jobs cannot be submitted because the pool closed.
	ErrWorkerPoolClosed = errors.New("ecs: worker pool closed")
	// ErrReadOnlyWrite indicates a READONLY or PURE-mode system attempted a buffered write.
	ErrReadOnlyWrite = errors.New("ecs: system is not permitted to write")
	// ErrProvisionalIDPersisted indicates a provisional entity ID outlived its tick.
	ErrProvisionalIDPersisted = errors.New("ecs: provisional entity id used outside its originating tick")
)
