package ecs

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// StorageStrategy produces the ComponentStore backing one registered
// component type. Dense (storage.NewDenseStrategy) and Shared
// (storage.NewSharedStrategy) ship with the runtime. There is no default
// strategy: RegisterComponent rejects a nil one with ErrNilStorageStrategy.
type StorageStrategy interface {
	Name() string
	NewStore(t ComponentType) ComponentStore
}

// ComponentView is read-only iteration over one component type's stored values.
type ComponentView interface {
	ComponentType() ComponentType
	Len() int
	Has(EntityID) bool
	Get(EntityID) (any, bool)
	Iterate(func(EntityID, any) bool)
}

// ComponentStore is a ComponentView plus the mutation methods a storage
// backend needs to apply writes.
type ComponentStore interface {
	ComponentView
	Set(EntityID, any) error
	Remove(EntityID) bool
	Clear()
}

// Storage is the replaceable backend behind a World: entity lifecycle,
// per-(entity,type) component access, multi-type queries, bulk commit, and
// an opaque snapshot/restore round-trip. Async variants exist for backends
// that front a remote store; the in-process default below implements them
// as direct, synchronous delegates.
type Storage interface {
	CreateEntity() EntityID
	// ReserveEntity installs a reserved singleton id (bypassing normal
	// allocation) and marks it alive. Called only by NewWorld at construction.
	ReserveEntity(index uint32) EntityID
	DestroyEntity(entity EntityID) error
	EntityExists(entity EntityID) bool
	AllEntities() []EntityID

	Get(entity EntityID, t ComponentType) (any, bool)
	GetRef(entity EntityID, t ComponentType) (any, bool)
	Set(entity EntityID, component any) error
	Remove(entity EntityID, t ComponentType) bool
	Has(entity EntityID, t ComponentType) bool
	TypesOf(entity EntityID) []ComponentType

	Iter(required []ComponentType) []QueryRow

	ApplyUpdates(updates map[EntityID]map[ComponentType]any, inserts map[EntityID][]any, removes map[EntityID][]ComponentType, destroys []EntityID) ([]EntityID, error)

	Snapshot() ([]byte, error)
	Restore(data []byte) error

	GetAsync(ctx context.Context, entity EntityID, t ComponentType) (any, bool, error)
	IterAsync(ctx context.Context, required []ComponentType) ([]QueryRow, error)
	ApplyUpdatesAsync(ctx context.Context, updates map[EntityID]map[ComponentType]any, inserts map[EntityID][]any, removes map[EntityID][]ComponentType, destroys []EntityID) ([]EntityID, error)

	// RegisterComponent wires a strategy in for t; RegisterComponent is a
	// lifecycle/setup call, not part of the tick-time contract.
	RegisterComponent(t ComponentType, strategy StorageStrategy) error
}

// QueryRow is one result row from Iter/IterAsync: an entity together with
// its component values in the order the required types were requested.
type QueryRow struct {
	Entity     EntityID
	Components []any
}

// LocalStorage is the default in-memory Storage implementation: one
// ComponentStore per registered type, backed by an Allocator for entity
// lifecycle and a ComponentRegistry for snapshot serialization.
type LocalStorage struct {
	mu        sync.RWMutex
	allocator *Allocator
	registry  *ComponentRegistry
	stores    map[ComponentType]ComponentStore
	alive     map[EntityID]struct{}
}

// NewLocalStorage constructs an empty in-memory storage backend.
func NewLocalStorage(allocator *Allocator, registry *ComponentRegistry) *LocalStorage {
	return &LocalStorage{
		allocator: allocator,
		registry:  registry,
		stores:    make(map[ComponentType]ComponentStore),
		alive:     make(map[EntityID]struct{}),
	}
}

// RegisterComponent wires strategy as the backing store for t. Also
// registers t with the ComponentRegistry and with encoding/gob, since
// Snapshot/Restore serializes stored component values.
func (s *LocalStorage) RegisterComponent(t ComponentType, strategy StorageStrategy) error {
	if strategy == nil {
		return ErrNilStorageStrategy
	}
	store := strategy.NewStore(t)
	if store == nil {
		return ErrNilComponentStore
	}

	if _, err := s.registry.Register(t); err != nil {
		return err
	}
	gob.Register(reflect.New(t).Elem().Interface())

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.stores[t]; exists {
		return ErrComponentAlreadyRegistered
	}
	s.stores[t] = store
	return nil
}

func (s *LocalStorage) storeFor(t ComponentType) (ComponentStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	store, ok := s.stores[t]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrComponentNotRegistered, t)
	}
	return store, nil
}

func (s *LocalStorage) CreateEntity() EntityID {
	id := s.allocator.Allocate()
	s.mu.Lock()
	s.alive[id] = struct{}{}
	s.mu.Unlock()
	return id
}

// ReserveEntity installs a reserved singleton id (bypassing the allocator's
// normal path) and marks it alive. Used once by World at construction.
func (s *LocalStorage) ReserveEntity(index uint32) EntityID {
	id := s.allocator.reserve(index)
	s.mu.Lock()
	s.alive[id] = struct{}{}
	s.mu.Unlock()
	return id
}

func (s *LocalStorage) DestroyEntity(entity EntityID) error {
	if err := s.allocator.Deallocate(entity); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.alive, entity)
	for _, store := range s.stores {
		store.Remove(entity)
	}
	s.mu.Unlock()
	return nil
}

func (s *LocalStorage) EntityExists(entity EntityID) bool {
	s.mu.RLock()
	_, ok := s.alive[entity]
	s.mu.RUnlock()
	return ok && s.allocator.IsAlive(entity)
}

func (s *LocalStorage) AllEntities() []EntityID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EntityID, 0, len(s.alive))
	for id := range s.alive {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Generation < out[j].Generation
	})
	return out
}

// Get returns a deep copy of the component, never a reference into storage.
func (s *LocalStorage) Get(entity EntityID, t ComponentType) (any, bool) {
	store, err := s.storeFor(t)
	if err != nil {
		return nil, false
	}
	v, ok := store.Get(entity)
	if !ok {
		return nil, false
	}
	return deepCopyComponent(v), true
}

// GetRef returns the stored value directly, without copying. Callers that
// mutate the result corrupt world state; use only when a caller has
// explicitly opted into reference access.
func (s *LocalStorage) GetRef(entity EntityID, t ComponentType) (any, bool) {
	store, err := s.storeFor(t)
	if err != nil {
		return nil, false
	}
	return store.Get(entity)
}

func (s *LocalStorage) Set(entity EntityID, component any) error {
	store, err := s.storeFor(componentTypeOf(component))
	if err != nil {
		return err
	}
	return store.Set(entity, component)
}

func (s *LocalStorage) Remove(entity EntityID, t ComponentType) bool {
	store, err := s.storeFor(t)
	if err != nil {
		return false
	}
	return store.Remove(entity)
}

func (s *LocalStorage) Has(entity EntityID, t ComponentType) bool {
	store, err := s.storeFor(t)
	if err != nil {
		return false
	}
	return store.Has(entity)
}

func (s *LocalStorage) TypesOf(entity EntityID) []ComponentType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ComponentType
	for t, store := range s.stores {
		if store.Has(entity) {
			out = append(out, t)
		}
	}
	return out
}

// Iter returns every entity holding all of the required types, each paired
// with its component values in request order. Iteration order over storage
// itself is unspecified but stable within one call.
func (s *LocalStorage) Iter(required []ComponentType) []QueryRow {
	if len(required) == 0 {
		return nil
	}
	first, err := s.storeFor(required[0])
	if err != nil {
		return nil
	}

	var rows []QueryRow
	first.Iterate(func(id EntityID, _ any) bool {
		components := make([]any, len(required))
		ok := true
		for i, t := range required {
			store, err := s.storeFor(t)
			if err != nil {
				ok = false
				break
			}
			v, has := store.Get(id)
			if !has {
				ok = false
				break
			}
			components[i] = deepCopyComponent(v)
		}
		if ok {
			rows = append(rows, QueryRow{Entity: id, Components: components})
		}
		return true
	})
	return rows
}

// ApplyUpdates commits a batch of already-resolved changes in the order
// updates, inserts, removes, destroys (destroys are applied last so they win
// over any earlier write to the same entity within the batch; this method
// assumes provisional IDs have already been resolved by the caller). It
// takes no spawns, so the returned slice of newly allocated entity IDs is
// always empty. World.ApplyResult does not call it; it commits through Set,
// Remove and DestroyEntity directly.
func (s *LocalStorage) ApplyUpdates(updates map[EntityID]map[ComponentType]any, inserts map[EntityID][]any, removes map[EntityID][]ComponentType, destroys []EntityID) ([]EntityID, error) {
	for entity, components := range updates {
		for _, component := range components {
			if err := s.Set(entity, component); err != nil {
				return nil, err
			}
		}
	}
	for entity, components := range inserts {
		for _, component := range components {
			if err := s.Set(entity, component); err != nil {
				return nil, err
			}
		}
	}
	for entity, types := range removes {
		for _, t := range types {
			s.Remove(entity, t)
		}
	}
	for _, entity := range destroys {
		if err := s.DestroyEntity(entity); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

type snapshotEntity struct {
	Shard      uint32
	Index      uint32
	Generation uint32
	Components map[uint64]any
}

type snapshotDTO struct {
	Entities []snapshotEntity
}

// Snapshot serializes the full storage state to an opaque byte buffer.
// Restore(Snapshot()) is a lossless round-trip on the same binary; no
// cross-version portability is implied or required.
func (s *LocalStorage) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dto := snapshotDTO{Entities: make([]snapshotEntity, 0, len(s.alive))}
	for id := range s.alive {
		entry := snapshotEntity{Shard: id.Shard, Index: id.Index, Generation: id.Generation, Components: make(map[uint64]any)}
		for t, store := range s.stores {
			v, ok := store.Get(id)
			if !ok {
				continue
			}
			meta, ok := s.registry.MetaOf(t)
			if !ok {
				continue
			}
			entry.Components[meta.ID] = v
		}
		dto.Entities = append(dto.Entities, entry)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(dto); err != nil {
		return nil, fmt.Errorf("ecs: snapshot encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore replaces all storage state with the contents of a byte buffer
// previously produced by Snapshot. Component types are resolved through the
// ComponentRegistry, so restoring into a process that never registered a
// type present in the snapshot silently drops that entity's component.
func (s *LocalStorage) Restore(data []byte) error {
	var dto snapshotDTO
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&dto); err != nil {
		return fmt.Errorf("ecs: restore decode: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.alive = make(map[EntityID]struct{}, len(dto.Entities))
	for _, store := range s.stores {
		store.Clear()
	}

	for _, entry := range dto.Entities {
		id := EntityID{Shard: entry.Shard, Index: entry.Index, Generation: entry.Generation}
		s.alive[id] = struct{}{}
		for typeID, value := range entry.Components {
			t, ok := s.registry.TypeOf(typeID)
			if !ok {
				continue
			}
			store, ok := s.stores[t]
			if !ok {
				continue
			}
			_ = store.Set(id, value)
		}
	}
	return nil
}

func (s *LocalStorage) GetAsync(ctx context.Context, entity EntityID, t ComponentType) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	v, ok := s.Get(entity, t)
	return v, ok, nil
}

func (s *LocalStorage) IterAsync(ctx context.Context, required []ComponentType) ([]QueryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Iter(required), nil
}

func (s *LocalStorage) ApplyUpdatesAsync(ctx context.Context, updates map[EntityID]map[ComponentType]any, inserts map[EntityID][]any, removes map[EntityID][]ComponentType, destroys []EntityID) ([]EntityID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.ApplyUpdates(updates, inserts, removes, destroys)
}

var _ Storage = (*LocalStorage)(nil)
