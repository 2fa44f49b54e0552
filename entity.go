package ecs

import (
	"fmt"
	"sync"
)

// ReservedEntityCount is the number of low indices reserved for well-known
// singleton entities. The allocator's normal allocate() path never hands out
// an index below this; World creates the reserved singletons directly.
const ReservedEntityCount = 1000

// Well-known singleton entity indices.
const (
	WorldEntityIndex uint32 = 0
	ClockEntityIndex uint32 = 1
)

// EntityID identifies an entity: a shard (0 = local), an index within that
// shard, and a generation counter for stale-handle detection. Equality and
// hashing use all three fields, so EntityID is safe as a Go map key as-is.
type EntityID struct {
	Shard      uint32
	Index      uint32
	Generation uint32
}

// IsZero reports whether id is the zero value (never a valid allocated entity).
func (id EntityID) IsZero() bool {
	return id == EntityID{}
}

// IsProvisional reports whether id refers to a not-yet-committed spawn
// recorded in some system's buffer this tick. Provisional IDs are only
// meaningful within the tick (in fact, the system execution) that produced
// them; persisting one across ticks is a misuse.
func (id EntityID) IsProvisional() bool {
	return int32(id.Index) < 0
}

// provisionalIndex returns the k in "the k-th queued spawn in this buffer"
// encoded by a provisional EntityID, or -1 if id is not provisional.
func provisionalIndex(id EntityID) int {
	if !id.IsProvisional() {
		return -1
	}
	return int(-int32(id.Index)) - 1
}

// provisionalEntityID builds the id for the k-th (0-based) queued spawn.
func provisionalEntityID(k int) EntityID {
	return EntityID{Shard: 0, Index: uint32(int32(-(k + 1))), Generation: 0}
}

func (id EntityID) String() string {
	return fmt.Sprintf("EntityID(shard=%d,index=%d,gen=%d)", id.Shard, id.Index, id.Generation)
}

// Allocator issues generational entity handles and recycles freed indices.
// State is kept per shard; shard 0 is the only shard a single-process
// runtime ever allocates into, but is_alive still consults the shard field
// so a handle minted on a foreign shard is never mistaken for local.
type Allocator struct {
	mu          sync.Mutex
	shard       uint32
	nextIndex   uint32
	generations []uint32
	free        []uint32
}

// NewAllocator constructs an allocator for the given shard, with its normal
// allocation path starting just past the reserved singleton range.
func NewAllocator(shard uint32) *Allocator {
	a := &Allocator{shard: shard, nextIndex: ReservedEntityCount}
	a.generations = make([]uint32, ReservedEntityCount, ReservedEntityCount*2)
	return a
}

// Shard returns the shard this allocator issues handles for.
func (a *Allocator) Shard() uint32 { return a.shard }

// Allocate issues a fresh entity handle, reusing a freed index when one is
// available (generation already incremented at free time) or minting a new
// index at generation 0 otherwise. O(1) amortized.
func (a *Allocator) Allocate() EntityID {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		return EntityID{Shard: a.shard, Index: idx, Generation: a.generations[idx]}
	}

	idx := a.nextIndex
	a.nextIndex++
	for int(idx) >= len(a.generations) {
		a.generations = append(a.generations, 0)
	}
	return EntityID{Shard: a.shard, Index: idx, Generation: a.generations[idx]}
}

// reserve installs a reserved singleton id directly, bypassing the normal
// free-list/next-index path. Used once at World construction.
func (a *Allocator) reserve(index uint32) EntityID {
	a.mu.Lock()
	defer a.mu.Unlock()
	for int(index) >= len(a.generations) {
		a.generations = append(a.generations, 0)
	}
	return EntityID{Shard: a.shard, Index: index, Generation: a.generations[index]}
}

// Deallocate frees id's index for reuse, incrementing its generation so any
// stale copy of id is no longer considered alive. Deallocating an entity
// from a foreign shard is rejected with ErrShardMismatch.
func (a *Allocator) Deallocate(id EntityID) error {
	if id.Shard != a.shard {
		return fmt.Errorf("%w: entity %s does not belong to shard %d", ErrShardMismatch, id, a.shard)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isAliveLocked(id) {
		return nil
	}
	a.generations[id.Index]++
	a.free = append(a.free, id.Index)
	return nil
}

// IsAlive reports whether id refers to a currently allocated entity. An
// entity whose shard does not match this allocator's shard is never alive
// locally, regardless of index/generation.
func (a *Allocator) IsAlive(id EntityID) bool {
	if id.Shard != a.shard {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isAliveLocked(id)
}

func (a *Allocator) isAliveLocked(id EntityID) bool {
	if int(id.Index) >= len(a.generations) {
		return false
	}
	return a.generations[id.Index] == id.Generation
}
