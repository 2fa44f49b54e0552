package ecs

import "fmt"

// ScopedAccess is the per-system view of a World handed to System.Run. Reads
// resolve against a buffer-over-storage overlay (this system's own writes so
// far this execution are visible; no other system's are), are deep-copied,
// and are checked against the system's declared Reads/Writes. Writes are
// buffered, never applied directly to storage - ExecuteSystem commits the
// buffer via World.ApplyResult after Run returns.
type ScopedAccess struct {
	world      *World
	descriptor SystemDescriptor
	mode       SystemMode
	buffer     *SystemResult
}

// NewScopedAccess builds the access handed to one system execution. Each
// call gets a fresh, empty buffer.
func NewScopedAccess(world *World, descriptor SystemDescriptor) *ScopedAccess {
	return &ScopedAccess{world: world, descriptor: descriptor, mode: descriptor.Mode, buffer: NewSystemResult()}
}

// Buffer returns the accumulated SystemResult. Called by World after Run
// returns, to fold in any shorthand return value and commit.
func (a *ScopedAccess) Buffer() *SystemResult { return a.buffer }

func (a *ScopedAccess) checkReadable(t ComponentType) error {
	if !a.descriptor.CanRead(t) {
		return fmt.Errorf("%w: %s cannot read %v", ErrAccessViolation, a.descriptor.Name, t)
	}
	return nil
}

func (a *ScopedAccess) checkWritable(t ComponentType) error {
	if a.mode != Interactive {
		return ErrReadOnlyWrite
	}
	if !a.descriptor.CanWrite(t) {
		return fmt.Errorf("%w: %s cannot write %v", ErrAccessViolation, a.descriptor.Name, t)
	}
	return nil
}

// overlayState computes the effective component set of entity as seen from
// this buffer: storage's committed state (skipped entirely for provisional
// ids, which never reach storage) folded with this system's own ops so far,
// applied in recorded order. destroyed is true iff a Destroy op for entity
// has been recorded, in which case the returned map is always empty.
func (a *ScopedAccess) overlayState(entity EntityID) (types map[ComponentType]any, destroyed bool) {
	types = make(map[ComponentType]any)
	if !entity.IsProvisional() {
		for _, t := range a.world.storage.TypesOf(entity) {
			if v, ok := a.world.storage.Get(entity, t); ok {
				types[t] = v
			}
		}
	}
	for _, op := range a.buffer.Ops() {
		if op.Entity != entity {
			continue
		}
		switch op.Kind {
		case OpSpawn:
			for _, c := range op.Spawned {
				types[componentTypeOf(c)] = c
			}
		case OpUpdate, OpInsert:
			types[op.Type] = op.Component
		case OpRemove:
			delete(types, op.Type)
		case OpDestroy:
			destroyed = true
			types = map[ComponentType]any{}
		}
	}
	return types, destroyed
}

// Get returns a deep copy of entity's component of type t, or (nil, false,
// nil) if entity has no such component (or has been destroyed within this
// buffer). Returns ErrAccessViolation if t is not in the system's declared
// read (or write, which implies read) access.
func (a *ScopedAccess) Get(entity EntityID, t ComponentType) (any, bool, error) {
	if err := a.checkReadable(t); err != nil {
		return nil, false, err
	}
	state, destroyed := a.overlayState(entity)
	if destroyed {
		return nil, false, nil
	}
	v, ok := state[t]
	if !ok {
		return nil, false, nil
	}
	return deepCopyComponent(v), true, nil
}

// Has reports whether entity currently carries a component of type t, per
// this buffer's overlay.
func (a *ScopedAccess) Has(entity EntityID, t ComponentType) (bool, error) {
	if err := a.checkReadable(t); err != nil {
		return false, err
	}
	state, destroyed := a.overlayState(entity)
	if destroyed {
		return false, nil
	}
	_, ok := state[t]
	return ok, nil
}

// Singleton reads t off the reserved WORLD entity.
func (a *ScopedAccess) Singleton(t ComponentType) (any, bool, error) {
	return a.Get(a.world.WorldEntity(), t)
}

// Entities lists every entity currently alive under this buffer's overlay:
// every committed entity not destroyed this execution, plus every entity
// spawned this execution.
func (a *ScopedAccess) Entities() []EntityID {
	set := make(map[EntityID]struct{})
	for _, e := range a.world.storage.AllEntities() {
		set[e] = struct{}{}
	}
	for _, op := range a.buffer.Ops() {
		switch op.Kind {
		case OpSpawn:
			set[op.Entity] = struct{}{}
		case OpDestroy:
			delete(set, op.Entity)
		}
	}
	out := make([]EntityID, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	return out
}

// Entity returns a handle bound to this access and entity, for the sugared
// Get/Set/Has/Delete accessor style.
func (a *ScopedAccess) Entity(id EntityID) EntityHandle {
	return EntityHandle{access: a, id: id}
}

// Query returns every entity (committed or spawned this execution) whose
// effective component set, per this buffer's overlay, satisfies q. Returned
// component values are ordered to match q.Required and are deep copies.
// Returns ErrAccessViolation if any required type is outside the system's
// declared read access.
func (a *ScopedAccess) Query(q Query) ([]QueryRow, error) {
	for _, t := range q.Required {
		if err := a.checkReadable(t); err != nil {
			return nil, err
		}
	}

	candidates := make(map[EntityID]struct{})
	for _, e := range a.world.storage.AllEntities() {
		candidates[e] = struct{}{}
	}
	for _, op := range a.buffer.Ops() {
		if op.Kind == OpSpawn {
			candidates[op.Entity] = struct{}{}
		}
	}

	var rows []QueryRow
	for entity := range candidates {
		state, destroyed := a.overlayState(entity)
		if destroyed {
			continue
		}
		has := make(map[ComponentType]struct{}, len(state))
		for t := range state {
			has[t] = struct{}{}
		}
		if !q.Matches(has) {
			continue
		}
		comps := make([]any, len(q.Required))
		for i, t := range q.Required {
			comps[i] = deepCopyComponent(state[t])
		}
		rows = append(rows, QueryRow{Entity: entity, Components: comps})
	}
	return rows, nil
}

// Update buffers an Update op for an existing component. Returns
// ErrReadOnlyWrite if the system's mode forbids direct buffer writes (PURE,
// READONLY), or ErrAccessViolation if componentTypeOf(component) is outside
// the system's declared write access.
func (a *ScopedAccess) Update(entity EntityID, component any) error {
	if err := a.checkWritable(componentTypeOf(component)); err != nil {
		return err
	}
	return a.buffer.RecordUpdate(entity, component)
}

// UpdateSingleton buffers an Update op against the reserved WORLD entity.
func (a *ScopedAccess) UpdateSingleton(component any) error {
	return a.Update(a.world.WorldEntity(), component)
}

// Insert buffers an Insert op, adding a new component to entity.
func (a *ScopedAccess) Insert(entity EntityID, component any) error {
	if err := a.checkWritable(componentTypeOf(component)); err != nil {
		return err
	}
	return a.buffer.RecordInsert(entity, component)
}

// Remove buffers a Remove op, dropping entity's component of type t.
func (a *ScopedAccess) Remove(entity EntityID, t ComponentType) error {
	if err := a.checkWritable(t); err != nil {
		return err
	}
	return a.buffer.RecordRemove(entity, t)
}

// Spawn buffers a Spawn op and returns the provisional id for the new
// entity, valid only within this execution. Warnings are returned (never
// errors) for duplicate component types among the given components.
func (a *ScopedAccess) Spawn(components ...any) (EntityID, []string, error) {
	for _, c := range components {
		if err := a.checkWritable(componentTypeOf(c)); err != nil {
			return EntityID{}, nil, err
		}
	}
	id, warnings := a.buffer.RecordSpawn(components...)
	return id, warnings, nil
}

// Destroy buffers a Destroy op for entity.
func (a *ScopedAccess) Destroy(entity EntityID) error {
	if a.mode != Interactive {
		return ErrReadOnlyWrite
	}
	a.buffer.RecordDestroy(entity)
	return nil
}

// MergeEntities folds x and y into one new entity: for each component type
// present on either, a type present on both is combined via Combinable (b,
// here y, wins on fallback); a type present on only one passes through
// unchanged. Both originals are destroyed. Returns the merged entity's
// provisional id.
func (a *ScopedAccess) MergeEntities(x, y EntityID) (EntityID, error) {
	if a.mode != Interactive {
		return EntityID{}, ErrReadOnlyWrite
	}
	stateX, destroyedX := a.overlayState(x)
	stateY, destroyedY := a.overlayState(y)
	if destroyedX || destroyedY {
		return EntityID{}, fmt.Errorf("%w: merge operand already destroyed", ErrEntityMissing)
	}

	merged := make(map[ComponentType]any, len(stateX)+len(stateY))
	for t, v := range stateX {
		merged[t] = v
	}
	for t, v := range stateY {
		if prior, ok := merged[t]; ok {
			merged[t] = combineOrFallback(prior, v)
		} else {
			merged[t] = v
		}
	}

	values := make([]any, 0, len(merged))
	for t, v := range merged {
		if err := a.checkWritable(t); err != nil {
			return EntityID{}, err
		}
		values = append(values, v)
	}

	id, _ := a.buffer.RecordSpawn(values...)
	a.buffer.RecordDestroy(x)
	a.buffer.RecordDestroy(y)
	return id, nil
}

// SplitEntity divides x into two new entities: a Splittable component
// contributes its two halves, one to each; any other component is deep
// copied onto both. The original is destroyed. Returns both new entities'
// provisional ids.
func (a *ScopedAccess) SplitEntity(x EntityID) (EntityID, EntityID, error) {
	if a.mode != Interactive {
		return EntityID{}, EntityID{}, ErrReadOnlyWrite
	}
	state, destroyed := a.overlayState(x)
	if destroyed {
		return EntityID{}, EntityID{}, fmt.Errorf("%w: split operand already destroyed", ErrEntityMissing)
	}

	valuesA := make([]any, 0, len(state))
	valuesB := make([]any, 0, len(state))
	for t, v := range state {
		if err := a.checkWritable(t); err != nil {
			return EntityID{}, EntityID{}, err
		}
		va, vb := splitOrFallback(v)
		valuesA = append(valuesA, va)
		valuesB = append(valuesB, vb)
	}

	idA, _ := a.buffer.RecordSpawn(valuesA...)
	idB, _ := a.buffer.RecordSpawn(valuesB...)
	a.buffer.RecordDestroy(x)
	return idA, idB, nil
}

// EntityHandle is accessor sugar around one entity bound to a ScopedAccess,
// the idiomatic replacement for the PUT-style operator overloads a
// dynamic-language binding might offer.
type EntityHandle struct {
	access *ScopedAccess
	id     EntityID
}

// ID returns the bound entity.
func (h EntityHandle) ID() EntityID { return h.id }

// Get returns a deep copy of the handle's component of type t.
func (h EntityHandle) Get(t ComponentType) (any, bool, error) {
	return h.access.Get(h.id, t)
}

// Has reports whether the handle currently carries a component of type t.
func (h EntityHandle) Has(t ComponentType) (bool, error) {
	return h.access.Has(h.id, t)
}

// Set buffers an Update if the handle already carries a component of
// component's type, or an Insert otherwise.
func (h EntityHandle) Set(component any) error {
	has, err := h.access.Has(h.id, componentTypeOf(component))
	if err != nil {
		return err
	}
	if has {
		return h.access.Update(h.id, component)
	}
	return h.access.Insert(h.id, component)
}

// Delete buffers a Remove of the handle's component of type t.
func (h EntityHandle) Delete(t ComponentType) error {
	return h.access.Remove(h.id, t)
}

// Destroy buffers a Destroy of the handle's entity.
func (h EntityHandle) Destroy() error {
	return h.access.Destroy(h.id)
}
