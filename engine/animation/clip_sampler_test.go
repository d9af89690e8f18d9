package animation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipSampler_CreatedIdle(t *testing.T) {
	s := NewClipSampler()
	assert.True(t, s.Ended())
	assert.Nil(t, s.Update(0.1))
}

func TestClipSampler_MainEndsExactlyAtDuration(t *testing.T) {
	const keys, rate = 10, 10.0
	s := NewClipSampler(WithMain(true))
	s.Play(rampClip("ramp", keys, rate))

	dt := 0.05
	var accumulated float64
	for !s.Ended() {
		before := accumulated
		s.Update(dt)
		accumulated += dt
		if s.Ended() {
			// Ending is only observed once the sample time reached K/R.
			assert.GreaterOrEqual(t, before+1e-9, float64(keys)/rate)
		}
		require.Less(t, accumulated, 5.0, "sampler never ended")
	}
	assert.InDelta(t, float64(keys)/rate, accumulated-dt, dt+1e-9)
}

func TestClipSampler_MainNeverRepeatsOrRegresses(t *testing.T) {
	s := NewClipSampler(WithMain(true))
	s.Play(rampClip("ramp", 24, 24))

	last := -1
	emitted := 0
	for i := 0; i < 200 && !s.Ended(); i++ {
		f := s.Update(1.0 / 60)
		if f == nil {
			continue
		}
		k := keyOf(f)
		assert.Greater(t, k, last)
		last = k
		emitted++
	}
	assert.Equal(t, 23, last)
	assert.LessOrEqual(t, emitted, 24)
}

func TestClipSampler_NonMainReemitsPrevious(t *testing.T) {
	s := NewClipSampler()
	s.Play(rampClip("ramp", 4, 10))

	first := s.Update(0.01)
	require.NotNil(t, first)
	again := s.Update(0.01)
	assert.Same(t, first, again)
}

func TestClipSampler_MainSkipsWhenNotAdvanced(t *testing.T) {
	s := NewClipSampler(WithMain(true))
	s.Play(rampClip("ramp", 4, 10))

	require.NotNil(t, s.Update(0.01))
	assert.Nil(t, s.Update(0.01))
	assert.False(t, s.Ended())
}

func TestClipSampler_ZeroKeyClipEndsImmediately(t *testing.T) {
	s := NewClipSampler(WithMain(true))
	s.Play(&Clip{Name: "empty", FrameRate: 30})
	assert.False(t, s.Ended())
	assert.Nil(t, s.Update(0.016))
	assert.True(t, s.Ended())
}

func TestClipSampler_ResetKeysOnlyOnFirstKey(t *testing.T) {
	s := NewClipSampler(WithMain(true))
	s.Play(rampClip("ramp", 3, 10))

	f0 := s.Update(0.1)
	require.NotNil(t, f0)
	assert.NotEmpty(t, f0.ResetKeys)
	assert.Equal(t, 0, f0.Source.Index)

	f1 := s.Update(0.1)
	require.NotNil(t, f1)
	assert.Empty(t, f1.ResetKeys)
	assert.Equal(t, 1, f1.Source.Index)
}

func TestClipSampler_PlayFromFrameAndTime(t *testing.T) {
	clip := rampClip("ramp", 20, 10)
	s := NewClipSampler(WithMain(true))

	s.PlayFromFrame(clip, 5)
	assert.Equal(t, 5, keyOf(s.Update(0.1)))
	assert.Equal(t, 6, keyOf(s.Update(0.1)))

	s.PlayFromTime(clip, 1.25)
	assert.Equal(t, 12, keyOf(s.Update(0.1)))
}

func TestClipSampler_ReusableAfterEnd(t *testing.T) {
	s := NewClipSampler(WithMain(true))
	s.Play(rampClip("a", 1, 10))
	s.Update(0.2)
	s.Update(0.2)
	require.True(t, s.Ended())

	s.Play(rampClip("b", 2, 10))
	assert.False(t, s.Ended())
	f := s.Update(0.1)
	require.NotNil(t, f)
	assert.Equal(t, "b", f.Source.Clip.Name)
}

func TestClipSampler_StopEnds(t *testing.T) {
	s := NewClipSampler()
	s.Play(rampClip("ramp", 5, 10))
	s.Stop()
	assert.True(t, s.Ended())
	assert.Nil(t, s.Update(0.1))
}
