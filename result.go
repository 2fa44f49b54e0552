package ecs

import "fmt"

// OpKind identifies the kind of mutation a recorded Op represents.
type OpKind uint8

const (
	OpUpdate OpKind = iota
	OpInsert
	OpRemove
	OpSpawn
	OpDestroy
)

// Op is one entry in a SystemResult's append-only log. Exactly the fields
// relevant to Kind are populated; Seq is assigned at record time and is
// strictly increasing within one SystemResult, starting at 0.
type Op struct {
	Seq       uint64
	Kind      OpKind
	Entity    EntityID
	Type      ComponentType
	Component any
	Spawned   []any // OpSpawn only: the components given to spawn, in call order
}

// SystemResult is the append-only, totally ordered sequence of mutation ops
// produced by one system execution (or a merge of several). The projections
// returned by Updates/Inserts/Removes/Spawns/Destroys collapse to
// last-writer-wins per (entity, type) for convenience; the op log itself
// never changes after recording and remains authoritative for apply_result's
// fold semantics.
type SystemResult struct {
	ops     []Op
	nextSeq uint64
}

// NewSystemResult returns an empty result.
func NewSystemResult() *SystemResult {
	return &SystemResult{}
}

// Ops returns the recorded op log, in recorded order. Callers must not
// mutate the returned slice.
func (r *SystemResult) Ops() []Op {
	return r.ops
}

// IsEmpty reports whether the result has recorded no ops at all.
func (r *SystemResult) IsEmpty() bool {
	return len(r.ops) == 0
}

func (r *SystemResult) record(op Op) {
	op.Seq = r.nextSeq
	r.nextSeq++
	r.ops = append(r.ops, op)
}

// RecordUpdate appends an Update op. component must be non-nil.
func (r *SystemResult) RecordUpdate(entity EntityID, component any) error {
	if component == nil {
		return fmt.Errorf("ecs: record_update requires a non-nil component")
	}
	r.record(Op{Kind: OpUpdate, Entity: entity, Type: componentTypeOf(component), Component: component})
	return nil
}

// RecordInsert appends an Insert op. component must be non-nil.
func (r *SystemResult) RecordInsert(entity EntityID, component any) error {
	if component == nil {
		return fmt.Errorf("ecs: record_insert requires a non-nil component")
	}
	r.record(Op{Kind: OpInsert, Entity: entity, Type: componentTypeOf(component), Component: component})
	return nil
}

// RecordRemove appends a Remove op.
func (r *SystemResult) RecordRemove(entity EntityID, t ComponentType) error {
	if t == nil {
		return fmt.Errorf("ecs: record_remove requires a non-nil type")
	}
	r.record(Op{Kind: OpRemove, Entity: entity, Type: t})
	return nil
}

// RecordSpawn appends a Spawn op for the given components and returns the
// provisional EntityID for this spawn ("the k-th queued spawn in this
// buffer"). Duplicate component types within one call keep only the last,
// matching spawn()'s documented last-wins-with-a-warning behavior.
func (r *SystemResult) RecordSpawn(components ...any) (EntityID, []string) {
	seen := make(map[ComponentType]int)
	deduped := make([]any, 0, len(components))
	var warnings []string
	for _, c := range components {
		t := componentTypeOf(c)
		if idx, ok := seen[t]; ok {
			warnings = append(warnings, fmt.Sprintf("ecs: spawn received duplicate component type %v; keeping last value", t))
			deduped[idx] = c
			continue
		}
		seen[t] = len(deduped)
		deduped = append(deduped, c)
	}

	k := 0
	for _, op := range r.ops {
		if op.Kind == OpSpawn {
			k++
		}
	}
	id := provisionalEntityID(k)
	r.record(Op{Kind: OpSpawn, Entity: id, Spawned: deduped})
	return id, warnings
}

// RecordDestroy appends a Destroy op.
func (r *SystemResult) RecordDestroy(entity EntityID) {
	r.record(Op{Kind: OpDestroy, Entity: entity})
}

// Merge copies other's ops onto the end of r, preserving other's internal
// order (invariant 4: left-then-right, each block internally preserved).
// Sequence numbers are reassigned so the combined log stays strictly
// increasing from r's current length.
func (r *SystemResult) Merge(other *SystemResult) {
	if other == nil {
		return
	}
	for _, op := range other.ops {
		op.Seq = r.nextSeq
		r.nextSeq++
		r.ops = append(r.ops, op)
	}
}

// Updates projects the op log to the last update recorded per (entity,type).
func (r *SystemResult) Updates() map[EntityID]map[ComponentType]any {
	out := make(map[EntityID]map[ComponentType]any)
	for _, op := range r.ops {
		if op.Kind != OpUpdate {
			continue
		}
		if out[op.Entity] == nil {
			out[op.Entity] = make(map[ComponentType]any)
		}
		out[op.Entity][op.Type] = op.Component
	}
	return out
}

// Inserts projects the op log to inserts, grouped by entity in recorded order.
func (r *SystemResult) Inserts() map[EntityID][]any {
	out := make(map[EntityID][]any)
	for _, op := range r.ops {
		if op.Kind != OpInsert {
			continue
		}
		out[op.Entity] = append(out[op.Entity], op.Component)
	}
	return out
}

// Removes projects the op log to removed types, grouped by entity.
func (r *SystemResult) Removes() map[EntityID][]ComponentType {
	out := make(map[EntityID][]ComponentType)
	for _, op := range r.ops {
		if op.Kind != OpRemove {
			continue
		}
		out[op.Entity] = append(out[op.Entity], op.Type)
	}
	return out
}

// Spawns projects the op log to the recorded spawn component lists, in order.
func (r *SystemResult) Spawns() [][]any {
	var out [][]any
	for _, op := range r.ops {
		if op.Kind != OpSpawn {
			continue
		}
		out = append(out, op.Spawned)
	}
	return out
}

// Destroys projects the op log to destroyed entities, in order.
func (r *SystemResult) Destroys() []EntityID {
	var out []EntityID
	for _, op := range r.ops {
		if op.Kind != OpDestroy {
			continue
		}
		out = append(out, op.Entity)
	}
	return out
}

func componentTypeOf(component any) ComponentType {
	return reflectTypeOf(component)
}

// SystemReturn is the shorthand value a system's Run may return in place of
// (or in addition to, for INTERACTIVE systems) buffering directly into its
// ScopedAccess. Supported shapes, checked in NormalizeResult:
//
//	nil
//	*SystemResult
//	map[EntityID]map[ComponentType]any
//	map[EntityID]any   (single component, type inferred)
//	[]EntityComponent  ([(entity, component), ...])
type SystemReturn = any

// EntityComponent pairs an entity with a single component value, the list
// shorthand form of a SystemReturn.
type EntityComponent struct {
	Entity    EntityID
	Component any
}

// NormalizeResult converts any supported SystemReturn shape into a
// SystemResult. A *SystemResult is returned as is, with whatever ops it
// holds; the map and list shorthand forms become pure Update ops (they can
// only express updates - insert/remove/spawn/destroy require the full
// buffer API). Returns ErrMalformedReturn for any other shape.
func NormalizeResult(raw SystemReturn) (*SystemResult, error) {
	if raw == nil {
		return NewSystemResult(), nil
	}

	switch v := raw.(type) {
	case *SystemResult:
		return v, nil
	case map[EntityID]map[ComponentType]any:
		result := NewSystemResult()
		for entity, components := range v {
			for _, component := range components {
				if err := result.RecordUpdate(entity, component); err != nil {
					return nil, err
				}
			}
		}
		return result, nil
	case map[EntityID]any:
		result := NewSystemResult()
		for entity, component := range v {
			if err := result.RecordUpdate(entity, component); err != nil {
				return nil, err
			}
		}
		return result, nil
	case []EntityComponent:
		result := NewSystemResult()
		for _, pair := range v {
			if err := result.RecordUpdate(pair.Entity, pair.Component); err != nil {
				return nil, err
			}
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrMalformedReturn, raw)
	}
}
