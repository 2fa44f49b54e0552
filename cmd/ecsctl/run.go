package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/extensivelabs/ecs"
	"github.com/extensivelabs/ecs/config"
	"github.com/extensivelabs/ecs/docs/examples/game"
	"github.com/extensivelabs/ecs/ecs/storage"
	"github.com/extensivelabs/ecs/log"
	"github.com/extensivelabs/ecs/metrics"
)

var (
	runSteps  int
	runDT     time.Duration
	stateFile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Construct a world, register the demo systems, and tick it",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&runSteps, "steps", 100, "number of ticks to run (0 runs until interrupted)")
	runCmd.Flags().DurationVar(&runDT, "dt", 50*time.Millisecond, "simulated duration of each tick")
	runCmd.Flags().StringVar(&stateFile, "state-file", "", "checkpoint file backing world state across runs (optional)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.Init(log.Config{Level: log.Level(cfg.Log.Level), JSONOutput: cfg.Log.JSON})
	logger := log.NewAdapter(log.Logger).With("run_id", runID)

	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server exited", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("metrics server listening", "addr", cfg.Metrics.Addr)
	}

	policy, err := cfg.Retry.Policy()
	if err != nil {
		return err
	}

	observer := ecs.NewObserverChain(
		ecs.NewLoggingObserver(logger),
		ecs.NewMetricsObserver(),
	)

	worldOpts := []ecs.WorldOption{ecs.WithSchedulerOptions(
		ecs.WithRetryPolicy(policy),
		ecs.WithConcurrencyLimit(cfg.Concurrency.Limit),
		ecs.WithSchedulerObserver(observer),
		ecs.WithSchedulerLogger(logger),
	)}

	var persistent *storage.PersistentStorage
	if stateFile != "" {
		registry := ecs.NewComponentRegistry()
		backing := ecs.NewLocalStorage(ecs.NewAllocator(0), registry)
		persistent, err = storage.NewPersistentStorage(backing, stateFile)
		if err != nil {
			return err
		}
		defer persistent.Close()
		worldOpts = append(worldOpts, ecs.WithStorage(persistent))
	}

	world := ecs.NewWorld(worldOpts...)

	if err := registerDemoComponents(world); err != nil {
		return fmt.Errorf("ecsctl: registering demo components: %w", err)
	}

	restored := false
	if persistent != nil {
		if err := persistent.Load(); err != nil {
			return fmt.Errorf("ecsctl: loading state file %s: %w", stateFile, err)
		}
		restored = len(world.QueryCopies(currentStatsType)) > 0
	}
	if !restored {
		if err := seedDemoEntities(world); err != nil {
			return fmt.Errorf("ecsctl: seeding demo world: %w", err)
		}
	}
	registerDemoSystems(world)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting run", "steps", runSteps, "restored", restored)
	ticks := 0
	for runSteps == 0 || ticks < runSteps {
		select {
		case <-ctx.Done():
			logger.Info("interrupted, stopping", "ticks_completed", ticks)
			return finish(world, persistent)
		default:
		}
		if err := world.Tick(ctx, runDT); err != nil {
			return fmt.Errorf("ecsctl: tick %d: %w", ticks, err)
		}
		ticks++
	}

	logger.Info("run complete", "ticks_completed", ticks)
	return finish(world, persistent)
}

var (
	baseStatsType     = reflect.TypeOf(game.BaseStats{})
	currentStatsType  = reflect.TypeOf(game.CurrentStats{})
	statModifiersType = reflect.TypeOf(game.StatModifiers{})
)

// registerDemoComponents wires the storage strategy for each component type
// the demo systems need. It must run before any attempt to load a state
// file, since restoring a checkpoint requires every component type it
// contains to already be gob-registered.
func registerDemoComponents(world *ecs.World) error {
	strategies := map[ecs.ComponentType]ecs.StorageStrategy{
		baseStatsType:     storage.NewSharedStrategy(),
		currentStatsType:  storage.NewDenseStrategy(),
		statModifiersType: storage.NewDenseStrategy(),
	}
	for t, strat := range strategies {
		if err := world.RegisterComponent(t, strat); err != nil {
			return err
		}
	}
	return nil
}

// registerDemoSystems registers the fixed system set exercised by `run`.
func registerDemoSystems(world *ecs.World) {
	world.RegisterSystem(game.HealthSystem{})
	world.RegisterSystem(game.CombatSystem{})
	world.RegisterSystem(game.ModifierCleanupSystem{})
	world.RegisterSystem(game.StatsDisplaySystem{})
}

var seedCommandPool = ecs.NewCommandBufferPool()

// seedDemoEntities spawns a small fixed cast of entities so a fresh world
// (one with no restored state) has something to tick over. The spawns are
// batched through a pooled CommandBuffer and applied in one pass.
func seedDemoEntities(world *ecs.World) error {
	buf := seedCommandPool.Get()
	defer seedCommandPool.Put(buf)

	zombieStats := game.BaseStats{
		MaxHealth:        50,
		BaseAttackDamage: 5,
		BaseDefense:      1,
		BaseMoveSpeed:    1.0,
		MiningEfficiency: 0,
	}
	for i := 0; i < 10; i++ {
		buf.Push(ecs.NewCreateEntityCommand(nil,
			zombieStats,
			game.CurrentStats{CurrentHealth: zombieStats.MaxHealth},
			game.StatModifiers{},
		))
	}
	for _, cmd := range buf.Drain() {
		if err := cmd.Apply(world); err != nil {
			return err
		}
	}
	return nil
}

// finish prints a final snapshot and, if a state file is in use, folds the
// journal into a fresh checkpoint so the next run can resume from it.
func finish(world *ecs.World, persistent *storage.PersistentStorage) error {
	data, err := world.Snapshot()
	if err != nil {
		return fmt.Errorf("ecsctl: snapshot: %w", err)
	}
	fmt.Printf("final snapshot: %d bytes\n", len(data))

	if persistent != nil {
		if err := persistent.Checkpoint(); err != nil {
			return fmt.Errorf("ecsctl: checkpoint %s: %w", stateFile, err)
		}
	}
	return nil
}
