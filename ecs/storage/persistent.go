package storage

import (
	"encoding/gob"
	"fmt"
	"os"
	"reflect"
	"sync"

	ecs "github.com/extensivelabs/ecs"
)

// PersistentStorage wraps another ecs.Storage with a write-behind journal
// and a file-backed checkpoint, so a world's state survives a process
// restart without every mutation needing to live only in memory. Every
// write is appended to the journal as it happens; Checkpoint folds the
// journal into a full snapshot file and truncates it, the way a
// write-ahead log is folded after a compaction.
//
// It is optional: a World built with the default LocalStorage alone never
// touches this type. It exists for the CLI driver's --state-file flag.
type PersistentStorage struct {
	ecs.Storage

	path    string
	mu      sync.Mutex
	journal *os.File
	enc     *gob.Encoder
}

type journalOp int

const (
	opSet journalOp = iota
	opRemove
	opDestroy
)

// journalRecord is one durable mutation. For opRemove, Component carries a
// zero-valued instance of the removed type purely so gob can recover the
// type on replay; its field values are never read back.
type journalRecord struct {
	Op        journalOp
	Entity    ecs.EntityID
	Component any
}

// NewPersistentStorage wraps inner and opens (creating if necessary) the
// write-behind journal at path+".journal". The checkpoint file itself, at
// path, is written only by Checkpoint.
func NewPersistentStorage(inner ecs.Storage, path string) (*PersistentStorage, error) {
	f, err := os.OpenFile(path+".journal", os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open journal for %s: %w", path, err)
	}
	return &PersistentStorage{
		Storage: inner,
		path:    path,
		journal: f,
		enc:     gob.NewEncoder(f),
	}, nil
}

// Load restores the most recent checkpoint at path (if one exists) and then
// replays every journal record appended since, so the wrapped storage ends
// up reflecting every durable write rather than just the last checkpoint.
// Call it once, after every component type has been registered (component
// values round-trip through gob, which requires their concrete types to
// already be registered).
func (p *PersistentStorage) Load() error {
	if data, err := os.ReadFile(p.path); err == nil {
		if err := p.Storage.Restore(data); err != nil {
			return fmt.Errorf("storage: restore checkpoint %s: %w", p.path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("storage: read checkpoint %s: %w", p.path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.journal.Seek(0, 0); err != nil {
		return fmt.Errorf("storage: seek journal: %w", err)
	}
	dec := gob.NewDecoder(p.journal)
	for {
		var rec journalRecord
		if err := dec.Decode(&rec); err != nil {
			break // truncated or empty tail; treat as end of the durable log
		}
		switch rec.Op {
		case opSet:
			if err := p.Storage.Set(rec.Entity, rec.Component); err != nil {
				return fmt.Errorf("storage: replay set for %v: %w", rec.Entity, err)
			}
		case opRemove:
			p.Storage.Remove(rec.Entity, reflect.TypeOf(rec.Component))
		case opDestroy:
			_ = p.Storage.DestroyEntity(rec.Entity)
		}
	}
	if _, err := p.journal.Seek(0, 2); err != nil {
		return fmt.Errorf("storage: seek journal tail: %w", err)
	}
	p.enc = gob.NewEncoder(p.journal)
	return nil
}

// Checkpoint snapshots the wrapped storage to path and truncates the
// journal, since everything in it is now captured by the snapshot.
func (p *PersistentStorage) Checkpoint() error {
	data, err := p.Storage.Snapshot()
	if err != nil {
		return fmt.Errorf("storage: snapshot for checkpoint: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("storage: write checkpoint %s: %w", p.path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.journal.Truncate(0); err != nil {
		return fmt.Errorf("storage: truncate journal: %w", err)
	}
	if _, err := p.journal.Seek(0, 0); err != nil {
		return fmt.Errorf("storage: seek journal: %w", err)
	}
	p.enc = gob.NewEncoder(p.journal)
	return nil
}

// Close flushes and closes the journal file. It does not checkpoint.
func (p *PersistentStorage) Close() error {
	return p.journal.Close()
}

func (p *PersistentStorage) appendRecord(rec journalRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enc.Encode(&rec); err != nil {
		return fmt.Errorf("storage: append journal record: %w", err)
	}
	return nil
}

// Set delegates to the wrapped storage, then journals the write.
func (p *PersistentStorage) Set(entity ecs.EntityID, component any) error {
	if err := p.Storage.Set(entity, component); err != nil {
		return err
	}
	return p.appendRecord(journalRecord{Op: opSet, Entity: entity, Component: component})
}

// Remove delegates to the wrapped storage, then journals the removal.
func (p *PersistentStorage) Remove(entity ecs.EntityID, t ecs.ComponentType) bool {
	ok := p.Storage.Remove(entity, t)
	if ok {
		zero := reflect.New(t).Elem().Interface()
		_ = p.appendRecord(journalRecord{Op: opRemove, Entity: entity, Component: zero})
	}
	return ok
}

// DestroyEntity delegates to the wrapped storage, then journals the destroy.
func (p *PersistentStorage) DestroyEntity(entity ecs.EntityID) error {
	if err := p.Storage.DestroyEntity(entity); err != nil {
		return err
	}
	return p.appendRecord(journalRecord{Op: opDestroy, Entity: entity})
}

// ApplyUpdates delegates to the wrapped storage, then journals every op it
// applied. The scheduler's per-tick commit (World.ApplyResult) does not go
// through this method; ticked writes are journaled by the Set, Remove and
// DestroyEntity overrides above.
func (p *PersistentStorage) ApplyUpdates(
	updates map[ecs.EntityID]map[ecs.ComponentType]any,
	inserts map[ecs.EntityID][]any,
	removes map[ecs.EntityID][]ecs.ComponentType,
	destroys []ecs.EntityID,
) ([]ecs.EntityID, error) {
	resolved, err := p.Storage.ApplyUpdates(updates, inserts, removes, destroys)
	if err != nil {
		return resolved, err
	}

	for entity, comps := range updates {
		for _, v := range comps {
			_ = p.appendRecord(journalRecord{Op: opSet, Entity: entity, Component: v})
		}
	}
	for entity, comps := range inserts {
		for _, v := range comps {
			_ = p.appendRecord(journalRecord{Op: opSet, Entity: entity, Component: v})
		}
	}
	for entity, types := range removes {
		for _, t := range types {
			zero := reflect.New(t).Elem().Interface()
			_ = p.appendRecord(journalRecord{Op: opRemove, Entity: entity, Component: zero})
		}
	}
	for _, entity := range destroys {
		_ = p.appendRecord(journalRecord{Op: opDestroy, Entity: entity})
	}

	return resolved, nil
}

var _ ecs.Storage = (*PersistentStorage)(nil)
