package engine

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pose/common"
	"github.com/Carmen-Shannon/oxy-pose/engine/animation"
	"github.com/Carmen-Shannon/oxy-pose/engine/avatar"
	"github.com/Carmen-Shannon/oxy-pose/engine/network"
	"github.com/Carmen-Shannon/oxy-pose/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pose/engine/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func clip(keys int) *animation.Clip {
	hips := make([]animation.Transform, keys)
	for i := range keys {
		hips[i] = animation.NewTransform(r3.Vec{X: float64(i)}, common.QuatIdentity(), r3.Vec{X: 1, Y: 1, Z: 1})
	}
	return &animation.Clip{
		Name:      "engine",
		FrameRate: 500,
		KeyCount:  keys,
		Channels:  []animation.Channel{{Bone: animation.BoneHips, Keys: hips}},
	}
}

func TestEngine_RunWithoutStage(t *testing.T) {
	e := NewEngine()
	assert.ErrorIs(t, e.Run(context.Background()), ErrNoStage)
}

func TestEngine_StopsAfterMaxTicks(t *testing.T) {
	local := avatar.NewAvatar(avatar.WithLocalPlayback(), avatar.WithSender(network.NewPoseSender()))
	s := stage.NewStage("engine", stage.WithAvatars(local))
	defer s.Close()

	var deltas []float64
	p := profiler.NewProfiler(profiler.WithInterval(time.Hour))
	e := NewEngine(
		WithStage(s),
		WithTickRate(500),
		WithFixedDelta(true),
		WithMaxTicks(5),
		WithProfiler(p),
		WithProfiling(true),
		WithTickCallback(func(dt float64) { deltas = append(deltas, dt) }),
	)
	local.Sampler().Add(clip(100))

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}

	assert.Equal(t, uint64(5), e.Ticks())
	require.Len(t, deltas, 5)
	for _, dt := range deltas {
		assert.InDelta(t, 0.002, dt, 1e-12)
	}
	stats := p.Stats()
	assert.Equal(t, uint64(5), stats.Ticks)
	assert.Equal(t, uint64(5), stats.Frames)
	assert.Equal(t, uint64(5), stats.Packets)
	assert.Greater(t, stats.Bytes, uint64(0))
	assert.InDelta(t, 0.01, local.Clock(), 1e-12)
}

func TestEngine_ContextCancelStops(t *testing.T) {
	s := stage.NewStage("cancel")
	defer s.Close()
	e := NewEngine(WithStage(s), WithTickRate(1000))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.Greater(t, e.Ticks(), uint64(0))
}

func TestEngine_QuitIsIdempotent(t *testing.T) {
	s := stage.NewStage("quit")
	defer s.Close()
	e := NewEngine(WithStage(s))

	e.Quit()
	e.Quit()
	assert.NoError(t, e.Run(context.Background()))
}

func TestTickInterval(t *testing.T) {
	assert.Equal(t, time.Second/60, tickInterval(0))
	assert.Equal(t, 10*time.Millisecond, tickInterval(100))
	assert.Equal(t, time.Second/144, tickInterval(144))
}
