package profiler

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/Carmen-Shannon/oxy-pose/engine/profiler"

// Stats is a snapshot of the profiler's running totals.
type Stats struct {
	Ticks   uint64
	Frames  uint64
	Packets uint64
	Bytes   uint64
}

// Profiler tracks tick rate, avatar frames, outgoing payloads and memory statistics.
// Outputs stats to the logger at a configurable interval and mirrors the totals to otel counters
// on the global meter.
type Profiler struct {
	mu     *sync.Mutex
	logger *zap.Logger

	tickCount      int
	frameCount     int
	packetCount    int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	totals         Stats

	ticks   metric.Int64Counter
	frames  metric.Int64Counter
	packets metric.Int64Counter
	bytes   metric.Int64Counter
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		logger:         zap.NewNop(),
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
	for _, option := range options {
		option(p)
	}

	m := otel.Meter(instrumentationName)
	p.ticks = p.counter(m, "posesim.ticks", "Host ticks processed")
	p.frames = p.counter(m, "posesim.frames", "Avatar frames advanced")
	p.packets = p.counter(m, "posesim.packets", "Pose payloads produced")
	p.bytes = p.counter(m, "posesim.bytes", "Pose payload bytes produced", metric.WithUnit("By"))
	return p
}

func (p *Profiler) counter(m metric.Meter, name, description string, options ...metric.Int64CounterOption) metric.Int64Counter {
	c, err := m.Int64Counter(name, append([]metric.Int64CounterOption{metric.WithDescription(description)}, options...)...)
	if err != nil {
		p.logger.Warn("failed to create counter", zap.String("name", name), zap.Error(err))
		return noop.Int64Counter{}
	}
	return c
}

// RecordFrames adds n avatar frames to the current interval.
//
// Parameters:
//   - n: the number of avatars advanced this tick
func (p *Profiler) RecordFrames(n int) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	p.frameCount += n
	p.totals.Frames += uint64(n)
	p.mu.Unlock()
	p.frames.Add(context.Background(), int64(n))
}

// RecordPackets adds outgoing payloads to the current interval.
//
// Parameters:
//   - n: the number of payloads
//   - size: their combined size in bytes
func (p *Profiler) RecordPackets(n, size int) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	p.packetCount += n
	p.totals.Packets += uint64(n)
	p.totals.Bytes += uint64(size)
	p.mu.Unlock()
	p.packets.Add(context.Background(), int64(n))
	p.bytes.Add(context.Background(), int64(size))
}

// Stats returns the totals recorded since the profiler was created.
//
// Returns:
//   - Stats: the running totals
func (p *Profiler) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totals
}

// Tick should be called once per host tick to track timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: tick rate, frame and packet rates, heap usage, allocation rate, GC count/pause times.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tickCount++
	p.totals.Ticks++
	p.ticks.Add(context.Background(), 1)

	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}
	seconds := max(elapsed.Seconds(), 1e-9)

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Info("profiler",
		zap.Float64("tps", float64(p.tickCount)/seconds),
		zap.Float64("framesPerSec", float64(p.frameCount)/seconds),
		zap.Float64("packetsPerSec", float64(p.packetCount)/seconds),
		zap.Float64("heapMB", float64(p.memStats.Alloc)/1024/1024),
		zap.Float64("allocRateMB", float64(allocDelta)/1024/1024/seconds),
		zap.Uint32("gc", gcCount),
		zap.Uint64("gcLastPauseUs", lastPauseUs),
		zap.Uint64("gcMaxPauseUs", maxPauseUs),
		zap.Float64("sysMB", float64(p.memStats.Sys)/1024/1024),
	)

	p.tickCount = 0
	p.frameCount = 0
	p.packetCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
