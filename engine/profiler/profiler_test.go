package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProfiler_TickLogsAtInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewProfiler(WithInterval(time.Hour), WithLogger(zap.New(core)))

	for range 5 {
		assert.False(t, p.Tick())
	}
	assert.Zero(t, logs.Len())
	assert.Equal(t, uint64(5), p.Stats().Ticks)
}

func TestProfiler_ZeroIntervalLogsEveryTick(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewProfiler(WithInterval(0), WithLogger(zap.New(core)))

	p.RecordFrames(3)
	p.RecordPackets(2, 130)
	require.True(t, p.Tick())
	require.True(t, p.Tick())

	entries := logs.FilterMessage("profiler").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Contains(t, fields, "tps")
	assert.Contains(t, fields, "packetsPerSec")
	assert.Contains(t, fields, "heapMB")
}

func TestProfiler_TotalsAccumulate(t *testing.T) {
	p := NewProfiler()
	p.RecordFrames(4)
	p.RecordFrames(0)
	p.RecordFrames(-2)
	p.RecordPackets(3, 195)
	p.RecordPackets(0, 10)
	p.Tick()

	assert.Equal(t, Stats{Ticks: 1, Frames: 4, Packets: 3, Bytes: 195}, p.Stats())
}
