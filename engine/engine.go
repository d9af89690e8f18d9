package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-pose/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pose/engine/stage"
	"go.uber.org/zap"
)

// ErrNoStage is returned by Run when the engine has no stage to drive.
var ErrNoStage = errors.New("engine has no stage")

// engine implements the Engine interface.
// Drives a stage from a fixed-rate ticker goroutine.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	logger *zap.Logger

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	fixedDelta     bool
	maxTicks       uint64
	ticks          atomic.Uint64
	tickCallback   func(deltaTime float64)

	stage stage.Stage
}

// Engine is the headless host loop. It ticks a stage at a fixed rate, passing the measured delta time,
// and optionally reports tick, frame and packet statistics through a profiler.
type Engine interface {
	// Stage returns the stage driven by the engine.
	//
	// Returns:
	//   - stage.Stage: the stage, or nil
	Stage() stage.Stage

	// SetStage replaces the stage driven by the engine. Must not be called while running.
	//
	// Parameters:
	//   - s: the stage to drive
	SetStage(s stage.Stage)

	// Profiler returns the engine's profiler.
	Profiler() *profiler.Profiler

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called after the stage each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float64))

	// Ticks returns the number of ticks processed since Run was first called.
	Ticks() uint64

	// Run starts the tick loop and blocks until ctx is done, Quit is called or the tick limit is reached.
	//
	// Parameters:
	//   - ctx: cancelling the context stops the engine
	//
	// Returns:
	//   - error: ErrNoStage when no stage is set
	Run(ctx context.Context) error

	// Quit signals the engine to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		wg:              sync.WaitGroup{},
		logger:          zap.NewNop(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	return e
}

func (e *engine) Stage() stage.Stage {
	return e.stage
}

func (e *engine) SetStage(s stage.Stage) {
	e.stage = s
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Ticks() uint64 {
	return e.ticks.Load()
}

func (e *engine) Run(ctx context.Context) error {
	if e.stage == nil {
		return ErrNoStage
	}
	e.running.Store(true)
	defer e.running.Store(false)

	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit(ctx)
	e.wg.Wait()
	return nil
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Ticks the stage at the configured rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	// A panicking avatar must not take the process down with it.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("engine goroutine recovered from panic", zap.Any("panic", r))
			e.signalQuit()
		}
	}()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(lastTick).Seconds()
			lastTick = now
			if e.fixedDelta {
				dt = e.engineTickRate.Seconds()
			}

			e.tick(dt)
			if e.maxTicks > 0 && e.ticks.Load() >= e.maxTicks {
				e.signalQuit()
				return
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// tick advances the stage once and records statistics.
func (e *engine) tick(dt float64) {
	packets := e.stage.Update(dt)
	e.ticks.Add(1)

	if e.profilingEnabled.Load() {
		size := 0
		for _, p := range packets {
			size += len(p.Data)
		}
		e.profiler.RecordFrames(e.stage.Count())
		e.profiler.RecordPackets(len(packets), size)
		e.profiler.Tick()
	}

	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
}

// handleQuit blocks until the quit channel is closed or ctx is done.
func (e *engine) handleQuit(ctx context.Context) {
	defer e.wg.Done()
	select {
	case <-e.quitChannel:
	case <-ctx.Done():
		e.signalQuit()
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float64)) {
	e.tickCallback = callback
}

// tickInterval converts a rate in ticks per second to a ticker period, defaulting to 60Hz.
func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}
