package ecs

import "context"

// SystemMode controls what a system may do with the ScopedAccess it receives.
type SystemMode uint8

const (
	// Interactive systems receive a full ScopedAccess: they may buffer
	// mutations directly and may also return a shorthand value, which is
	// normalized and merged into their buffer at system exit.
	Interactive SystemMode = iota
	// Pure systems receive read-only access; every mutation must be
	// expressed in the returned value. Any attempt to call a ScopedAccess
	// write method fails with ErrReadOnlyWrite.
	Pure
	// Readonly systems may not write at all: NewSystemDescriptor replaces
	// any declared Writes access with NoAccess without reporting an error,
	// and CanWrite is false for every type.
	Readonly
)

// System is user logic registered with a World. Run executes once per tick
// the system is scheduled, against a ScopedAccess enforcing Descriptor's
// declared access.
type System interface {
	Descriptor() SystemDescriptor
	Run(ctx context.Context, access *ScopedAccess) (SystemReturn, error)
}

// SystemDescriptor is the immutable record of one system's identity,
// access declarations, mode, and scheduling hints.
type SystemDescriptor struct {
	Name       string
	Reads      AccessPattern
	Writes     AccessPattern
	Mode       SystemMode
	Frequency  float64
	Phase      string
	RunsAlone  bool
	IsAsync    bool
}

// SystemOption configures a SystemDescriptor via NewSystemDescriptor.
type SystemOption func(*systemOptions)

type systemOptions struct {
	reads     *AccessPattern
	writes    *AccessPattern
	mode      SystemMode
	frequency float64
	phase     string
	runsAlone bool
	isAsync   bool
}

// WithReads declares the system's read access pattern.
func WithReads(p AccessPattern) SystemOption {
	return func(o *systemOptions) { o.reads = &p }
}

// WithWrites declares the system's write access pattern.
func WithWrites(p AccessPattern) SystemOption {
	return func(o *systemOptions) { o.writes = &p }
}

// WithMode sets the system's execution mode (default Interactive).
func WithMode(m SystemMode) SystemOption {
	return func(o *systemOptions) { o.mode = m }
}

// WithFrequency sets a scheduling hint (not consulted by the default
// scheduler; default 1.0).
func WithFrequency(f float64) SystemOption {
	return func(o *systemOptions) { o.frequency = f }
}

// WithPhase sets a scheduling hint (not consulted by the default scheduler;
// default "update").
func WithPhase(phase string) SystemOption {
	return func(o *systemOptions) { o.phase = phase }
}

// WithAsync marks the system as safe to run with its own await/blocking
// points (detected explicitly here rather than via signature inspection).
func WithAsync() SystemOption {
	return func(o *systemOptions) { o.isAsync = true }
}

// Dev marks the system as dev-mode: runs_alone=true, both access patterns
// become All, scheduled in isolation from every other system.
func Dev() SystemOption {
	return func(o *systemOptions) {
		o.runsAlone = true
		all := All()
		o.reads = &all
		o.writes = &all
	}
}

// ReadOnly marks the system as READONLY: mode=READONLY, writes=NoAccess.
func ReadOnly() SystemOption {
	return func(o *systemOptions) {
		o.mode = Readonly
		none := NoAccess()
		o.writes = &none
	}
}

// NewSystemDescriptor builds a SystemDescriptor from the given name and
// options, applying the default access rule (both All when neither reads
// nor writes is specified) via NormalizeAccessPair.
func NewSystemDescriptor(name string, opts ...SystemOption) SystemDescriptor {
	o := systemOptions{phase: "update", frequency: 1.0}
	for _, opt := range opts {
		opt(&o)
	}
	reads, writes := NormalizeAccessPair(o.reads, o.writes)
	if o.mode == Readonly {
		writes = NoAccess()
	}
	return SystemDescriptor{
		Name:      name,
		Reads:     reads,
		Writes:    writes,
		Mode:      o.mode,
		Frequency: o.frequency,
		Phase:     o.phase,
		RunsAlone: o.runsAlone,
		IsAsync:   o.isAsync,
	}
}

// CanRead reports whether t is readable under d: write access always
// implies read access.
func (d SystemDescriptor) CanRead(t ComponentType) bool {
	return PatternAllows(d.Reads, t) || PatternAllows(d.Writes, t)
}

// CanWrite reports whether t is writable under d. READONLY systems can
// never write regardless of their declared Writes pattern.
func (d SystemDescriptor) CanWrite(t ComponentType) bool {
	if d.Mode == Readonly {
		return false
	}
	return PatternAllows(d.Writes, t)
}
