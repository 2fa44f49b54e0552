package ecs

import (
	"context"
	"fmt"
	"time"
)

// Scheduler runs a world's registered systems tick by tick under the
// default two-tier plan: every dev-mode/runs-alone system gets its own
// isolated group, in registration order, and every remaining system forms
// one final group, run concurrently when a concurrency limit is set (see
// WithConcurrencyLimit). Systems within a group all see the
// same snapshot of committed world state; none sees another's writes until
// the group's results are committed, in registration order, after every
// system in the group has returned.
type Scheduler struct {
	world       *World
	groups      [][]System
	retry       RetryPolicy
	strictMerge bool
	concurrency int
	observer    TickObserver
	logger      Logger
	tick        uint64
}

// SchedulerOption configures a Scheduler at construction.
type SchedulerOption func(*Scheduler)

// WithRetryPolicy overrides the default (no-retry) policy applied to every
// system's Run call.
func WithRetryPolicy(p RetryPolicy) SchedulerOption {
	return func(s *Scheduler) { s.retry = p }
}

// WithStrictMerge enables conflict detection between systems in the same
// concurrently-executed group: if two systems wrote the same (entity, type)
// pair with values that are not Combinable, the tick fails with ErrConflict
// instead of silently applying last-writer-wins at commit.
func WithStrictMerge(enabled bool) SchedulerOption {
	return func(s *Scheduler) { s.strictMerge = enabled }
}

// WithConcurrencyLimit runs each group's systems on n worker goroutines, so
// at most n of them run at once. 0 (the default) starts no workers: the
// systems of a group run one after another in the calling goroutine.
func WithConcurrencyLimit(n int) SchedulerOption {
	return func(s *Scheduler) { s.concurrency = n }
}

// WithSchedulerObserver attaches an observer notified after each group commits.
func WithSchedulerObserver(o TickObserver) SchedulerOption {
	return func(s *Scheduler) { s.observer = o }
}

// WithSchedulerLogger attaches a logger used for tick-failure diagnostics.
func WithSchedulerLogger(l Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler builds a Scheduler over systems, in registration order,
// applying the default two-tier grouping.
func NewScheduler(world *World, systems []System, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		world:    world,
		groups:   buildSchedulePlan(systems),
		retry:    DefaultRetryPolicy(),
		observer: noopObserver{},
		logger:   noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// buildSchedulePlan implements the default two-tier plan: every system
// descriptor marking RunsAlone gets its own single-system group, in
// registration order; every other system is collected into one final group.
// A plan with no non-isolated systems has no final group.
func buildSchedulePlan(systems []System) [][]System {
	var groups [][]System
	var final []System
	for _, sys := range systems {
		if sys.Descriptor().RunsAlone {
			groups = append(groups, []System{sys})
		} else {
			final = append(final, sys)
		}
	}
	if len(final) > 0 {
		groups = append(groups, final)
	}
	return groups
}

// Tick runs every group in plan order, committing each group's results
// before the next group starts, and advances the tick counter on success.
func (s *Scheduler) Tick(ctx context.Context, dt time.Duration) error {
	for i, group := range s.groups {
		if err := s.runGroup(ctx, i, group); err != nil {
			return err
		}
	}
	s.tick++
	return nil
}

// Run executes steps ticks in sequence, stopping at the first error.
func (s *Scheduler) Run(ctx context.Context, steps int, dt time.Duration) error {
	for i := 0; i < steps; i++ {
		if err := s.Tick(ctx, dt); err != nil {
			return err
		}
	}
	return nil
}

type systemOutcome struct {
	sys      System
	access   *ScopedAccess
	ret      SystemReturn
	attempts int
	duration time.Duration
	err      error
}

func (s *Scheduler) runGroup(ctx context.Context, index int, group []System) error {
	start := time.Now()
	pool := newWorkerPool(s.concurrency)
	defer pool.Close()

	handles := make([]*jobHandle, len(group))
	for i, sys := range group {
		sys := sys
		handles[i] = pool.Submit(ctx, func(ctx context.Context) jobResult {
			outcome := s.runSystemWithRetry(ctx, sys)
			return jobResult{value: outcome}
		})
	}

	outcomes := make([]systemOutcome, len(group))
	for i, h := range handles {
		res := h.Wait()
		if res.err != nil {
			outcomes[i] = systemOutcome{sys: group[i], err: res.err}
			continue
		}
		outcomes[i] = res.value.(systemOutcome)
	}

	summary := GroupSummary{GroupIndex: index, Tick: s.tick, SystemsTotal: len(group)}
	results := make([]*SystemResult, 0, len(group))

	for _, o := range outcomes {
		name := o.sys.Descriptor().Name
		sysSummary := SystemSummary{Name: name, Duration: o.duration, Attempts: o.attempts, Mode: o.sys.Descriptor().Mode}
		if o.err != nil {
			summary.SystemsFailed++
			sysSummary.Err = o.err
			summary.Systems = append(summary.Systems, sysSummary)
			if s.retryOnExhausted() == OnExhaustedSkip {
				continue
			}
			summary.Duration = time.Since(start)
			summary.Err = fmt.Errorf("%w: system %s: %v", ErrTickFailure, name, o.err)
			s.observer.GroupCompleted(summary)
			return summary.Err
		}

		result, err := normalizeSystemOutcome(o)
		if err != nil {
			summary.Err = fmt.Errorf("%w: system %s: %v", ErrMalformedReturn, name, err)
			s.observer.GroupCompleted(summary)
			return summary.Err
		}
		sysSummary.Ops = len(result.Ops())
		summary.Systems = append(summary.Systems, sysSummary)
		summary.SystemsExecuted++
		results = append(results, result)
	}

	if s.strictMerge {
		if conflict := detectConflicts(results); conflict != nil {
			summary.Duration = time.Since(start)
			summary.Err = conflict
			s.observer.GroupCompleted(summary)
			return conflict
		}
	}

	for _, result := range results {
		if err := s.world.ApplyResult(result); err != nil {
			summary.Duration = time.Since(start)
			summary.Err = err
			s.observer.GroupCompleted(summary)
			return err
		}
	}

	summary.Duration = time.Since(start)
	s.observer.GroupCompleted(summary)
	return nil
}

func (s *Scheduler) retryOnExhausted() ExhaustedAction {
	return s.retry.OnExhausted
}

func (s *Scheduler) runSystemWithRetry(ctx context.Context, sys System) systemOutcome {
	maxAttempts := s.retry.maxAttempts()
	var last systemOutcome
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if d := s.retry.delay(attempt); d > 0 {
				select {
				case <-ctx.Done():
					return systemOutcome{sys: sys, attempts: attempt, err: ctx.Err()}
				case <-time.After(d):
				}
			}
		}

		started := time.Now()
		access := NewScopedAccess(s.world, sys.Descriptor())
		ret, err := sys.Run(ctx, access)
		last = systemOutcome{sys: sys, access: access, ret: ret, attempts: attempt, duration: time.Since(started), err: err}
		if err == nil {
			return last
		}
	}
	return last
}

func normalizeSystemOutcome(o systemOutcome) (*SystemResult, error) {
	switch o.sys.Descriptor().Mode {
	case Interactive:
		result := o.access.Buffer()
		if o.ret != nil {
			shorthand, err := NormalizeResult(o.ret)
			if err != nil {
				return nil, err
			}
			result.Merge(shorthand)
		}
		return result, nil
	default:
		return NormalizeResult(o.ret)
	}
}

// detectConflicts reports an ErrConflict if two results in the same group
// wrote the same (entity, type) pair with values that are not Combinable
// (and so would otherwise resolve via silent last-writer-wins at commit).
func detectConflicts(results []*SystemResult) error {
	type key struct {
		Entity EntityID
		Type   ComponentType
	}
	type write struct {
		owner int
		value any
	}
	seen := make(map[key]write)
	for i, result := range results {
		for _, op := range result.Ops() {
			if op.Kind != OpUpdate && op.Kind != OpInsert {
				continue
			}
			k := key{Entity: op.Entity, Type: op.Type}
			prior, ok := seen[k]
			if !ok || prior.owner == i {
				seen[k] = write{owner: i, value: op.Component}
				continue
			}
			if _, combinable := op.Component.(Combinable); !combinable {
				return fmt.Errorf("%w: entity %s type %v written by more than one system this group", ErrConflict, op.Entity, op.Type)
			}
			seen[k] = write{owner: i, value: combineOrFallback(prior.value, op.Component)}
		}
	}
	return nil
}
